package client

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/mapcast/internal/palette"
)

// upperHalf draws the top pixel as foreground and the bottom one as
// background, so one terminal cell shows two map rows.
const upperHalf = '▀'

const cursorRune = '◆'

// Screen draws a mirror on a terminal.
type Screen struct {
	mu     sync.Mutex
	screen tcell.Screen
	status string
}

// NewScreen creates a screen on the current terminal.
func NewScreen() (*Screen, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewScreenWith(s), nil
}

// NewScreenWith wraps an existing tcell screen, such as a simulation screen.
func NewScreenWith(s tcell.Screen) *Screen {
	return &Screen{screen: s}
}

// Init initializes the terminal.
func (s *Screen) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.screen.Init(); err != nil {
		return err
	}
	s.screen.HideCursor()
	return nil
}

// Shutdown restores the terminal.
func (s *Screen) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen.Fini()
}

// PollEvent waits for the next terminal event.
func (s *Screen) PollEvent() tcell.Event {
	return s.screen.PollEvent()
}

// PostEvent queues an event, waking PollEvent.
func (s *Screen) PostEvent(ev tcell.Event) error {
	return s.screen.PostEvent(ev)
}

// SetStatus changes the text of the status line.
func (s *Screen) SetStatus(format string, args ...any) {
	s.mu.Lock()
	s.status = fmt.Sprintf(format, args...)
	s.mu.Unlock()
}

// Draw renders m, clipped to the terminal, followed by the status line.
func (s *Screen) Draw(m *Mirror) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
	tw, th := s.screen.Size()
	w, h := m.Size()
	rows := min((h+1)/2, th-1)
	cols := min(w, tw)

	for cy := 0; cy < rows; cy++ {
		for x := 0; x < cols; x++ {
			top, topOK := m.Color(x, 2*cy)
			bottom, bottomOK := m.Color(x, 2*cy+1)
			style := tcell.StyleDefault.
				Foreground(cellColor(top, topOK)).
				Background(cellColor(bottom, bottomOK))
			s.screen.SetContent(x, cy, upperHalf, nil, style)
		}
	}

	for _, c := range m.Cursors() {
		x, cy := int(c.X), int(c.Y)/2
		if x >= cols || cy >= rows {
			continue
		}
		style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack).Bold(true)
		s.screen.SetContent(x, cy, cursorRune, nil, style)
	}

	if th > 0 {
		statusStyle := tcell.StyleDefault.Reverse(true)
		for x, r := range []rune(s.status) {
			if x >= tw {
				break
			}
			s.screen.SetContent(x, th-1, r, nil, statusStyle)
		}
	}
	s.screen.Show()
}

func cellColor(c palette.Color, ok bool) tcell.Color {
	if !ok {
		return tcell.ColorReset
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
