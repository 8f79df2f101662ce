package palette

import (
	"fmt"
	"strings"
)

// Matcher maps an arbitrary RGB color onto a palette entry.
type Matcher interface {
	Match(c Color) MapColor
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(c Color) MapColor

// Match implements Matcher.
func (f MatcherFunc) Match(c Color) MapColor {
	return f(c)
}

// Matcher kinds accepted by NewMatcher.
const (
	MatchEuclidean = "euclidean"
	MatchShaded    = "shaded"
	MatchLab       = "lab"
)

// NewMatcher returns the matcher of the given kind bound to p.
// An empty kind selects the euclidean matcher.
func NewMatcher(p *Palette, kind string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", MatchEuclidean:
		return p, nil
	case MatchShaded:
		return &ShadedMatcher{palette: p}, nil
	case MatchLab:
		return &LabMatcher{palette: p}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatcher, kind)
	}
}

// ShadedMatcher considers every (base, shade) pair of the opaque bases and
// interns only the winning pair. It trades index growth for closer matches.
type ShadedMatcher struct {
	palette *Palette
}

// NewShadedMatcher creates a ShadedMatcher for p.
func NewShadedMatcher(p *Palette) *ShadedMatcher {
	return &ShadedMatcher{palette: p}
}

// Match implements Matcher. Ties resolve to the lowest base, then the lowest
// shade ordinal, with the named shade checked first for each base.
func (m *ShadedMatcher) Match(c Color) MapColor {
	p := m.palette

	bestBase, bestShade := -1, ShadeBase
	bestDist := 0

	order := []Shade{ShadeBase, ShadeDark, ShadeLight, ShadeDarker}
	for base := 0; base < p.named; base++ {
		if p.bases[base].Transparent {
			continue
		}
		for _, s := range order {
			dist := c.DistanceSq(p.shadedRGB(base, s))
			if bestBase < 0 || dist < bestDist {
				bestBase, bestShade, bestDist = base, s, dist
			}
		}
	}
	if bestBase < 0 {
		return p.Air()
	}

	named, _ := p.Base(BaseID(bestBase))
	return p.Shade(named, bestShade)
}

// LabMatcher matches named opaque entries by CIELAB distance, which tracks
// perceived difference better than RGB distance.
type LabMatcher struct {
	palette *Palette
}

// NewLabMatcher creates a LabMatcher for p.
func NewLabMatcher(p *Palette) *LabMatcher {
	return &LabMatcher{palette: p}
}

// Match implements Matcher. Ties resolve to the lowest palette index.
func (m *LabMatcher) Match(c Color) MapColor {
	p := m.palette
	target := c.colorful()

	p.mu.RLock()
	defer p.mu.RUnlock()

	best := 0
	bestDist := -1.0
	for i, entry := range p.table[:p.named] {
		if entry.transparent {
			continue
		}
		dist := target.DistanceLab(entry.rgb.colorful())
		if bestDist < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	return p.table[best]
}
