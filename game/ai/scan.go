package ai

import "github.com/kasuganosora/stalker/game/geom"

// Scan is the three-step look-around: turn one way, turn the other way, then
// face the base orientation again, pausing Dwell seconds at each.
type Scan struct {
	Angle float64
	Dwell float64

	headings [3]float64
	cursor   int
	timer    float64
	active   bool
}

// Start begins a fresh sweep around base.
func (s *Scan) Start(base float64) {
	s.headings = [3]float64{
		geom.NormalizeAngle(base + s.Angle),
		geom.NormalizeAngle(base - s.Angle),
		geom.NormalizeAngle(base),
	}
	s.cursor = 0
	s.timer = 0
	s.active = true
}

// Update advances the dwell timer. It returns the heading to hold this tick
// and whether the sweep has finished.
func (s *Scan) Update(dt float64) (heading float64, done bool) {
	if !s.active {
		return s.headings[2], true
	}
	heading = s.headings[s.cursor]
	s.timer += dt
	if elapsed(s.timer, s.Dwell) {
		s.timer = 0
		s.cursor++
		if s.cursor >= len(s.headings) {
			s.active = false
			return heading, true
		}
	}
	return heading, false
}

// Active reports whether a sweep is in progress.
func (s *Scan) Active() bool { return s.active }

// Step is the index of the orientation currently held.
func (s *Scan) Step() int { return s.cursor }

// Cancel stops the sweep without completing it.
func (s *Scan) Cancel() {
	s.active = false
	s.timer = 0
	s.cursor = 0
}
