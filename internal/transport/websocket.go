package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dshills/mapcast/internal/protocol"
	"github.com/dshills/mapcast/internal/view"
)

// maxClientFrame bounds frames read from viewers; they only send control
// frames.
const maxClientFrame = 1024

// serveWS subscribes a viewer to a view and upgrades the connection. The
// viewer receives a hello, the palette and a full update before anything
// else.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "viewID")
	v, ok := s.backend.GetMap(id)
	if !ok {
		http.Error(w, "unknown map", http.StatusNotFound)
		return
	}

	hello := &protocol.Hello{
		Version: protocol.Version,
		ViewID:  id,
		Width:   uint16(v.Width()),
		Height:  uint16(v.Height()),
	}
	var viewer *Viewer
	err := v.Attach(func(full *protocol.Update) error {
		var err error
		viewer, err = s.hub.Subscribe(id, hello, full)
		return err
	})
	if err != nil {
		s.log.Debug("subscribe %s: %v", id, err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade %s: %v", id, err)
		s.hub.Unsubscribe(viewer.ID)
		return
	}

	go s.writePump(conn, viewer)
	s.readPump(conn, viewer, v)
}

// readPump handles control frames until the connection fails.
func (s *Server) readPump(conn *websocket.Conn, viewer *Viewer, v *view.View) {
	defer func() {
		s.hub.Unsubscribe(viewer.ID)
		conn.Close()
	}()

	conn.SetReadLimit(maxClientFrame)
	conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		return nil
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("viewer %s: %v", viewer.ID, err)
			}
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}

		f, err := protocol.Parse(data)
		if err != nil {
			s.hub.SendFrame(viewer.ID, (&protocol.ErrorMessage{Code: protocol.CodeBadFrame, Message: err.Error()}).Encode())
			continue
		}
		switch f.Type {
		case protocol.TypePing:
			s.hub.SendFrame(viewer.ID, &protocol.Frame{Type: protocol.TypePing})
		case protocol.TypeResync:
			err := v.Attach(func(full *protocol.Update) error {
				s.hub.Resync(viewer, full)
				return nil
			})
			if err != nil {
				s.hub.SendFrame(viewer.ID, (&protocol.ErrorMessage{Code: protocol.CodeNotFound, Message: err.Error()}).Encode())
				return
			}
		default:
			s.hub.SendFrame(viewer.ID, (&protocol.ErrorMessage{Code: protocol.CodeBadFrame, Message: "unexpected " + f.Type.String()}).Encode())
		}
	}
}

// writePump writes queued frames and keeps the connection alive.
func (s *Server) writePump(conn *websocket.Conn, viewer *Viewer) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	write := func(frame []byte) bool {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			s.log.Debug("viewer %s: write: %v", viewer.ID, err)
			return false
		}
		return true
	}

	for {
		select {
		case frame := <-viewer.Frames():
			if !write(frame) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-viewer.Done():
			// Flush what was queued before the close, such as an error frame.
			for {
				select {
				case frame := <-viewer.Frames():
					if !write(frame) {
						return
					}
					continue
				default:
				}
				break
			}
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
