package ai

import (
	"math"
	"math/rand"

	"github.com/kasuganosora/stalker/game/geom"
	"go.uber.org/zap"
)

// SearchGenerator produces reachable points to sweep near a perceived
// direction. Candidates are judged by real path length, not straight-line
// distance.
type SearchGenerator struct {
	Nav  NavigationPort
	Rand *rand.Rand

	MinDistance   float64
	MaxDistance   float64
	Spread        float64
	SnapTolerance float64
	TargetPoints  int
	MaxAttempts   int
}

// Generate runs at most MaxAttempts trials and returns the accepted points in
// acceptance order. It returns early once TargetPoints are accepted.
func (g *SearchGenerator) Generate(origin, dir geom.Vec2) []geom.Vec2 {
	if g.TargetPoints <= 0 || g.Nav == nil {
		return nil
	}
	var base float64
	if n, ok := dir.Normalize(); ok {
		base = n.Heading()
	} else {
		base = g.uniform(-math.Pi, math.Pi)
	}

	points := make([]geom.Vec2, 0, g.TargetPoints)
	for attempt := 0; attempt < g.MaxAttempts && len(points) < g.TargetPoints; attempt++ {
		angle := base + g.uniform(-g.Spread/2, g.Spread/2)
		dist := g.uniform(g.MinDistance, g.MaxDistance)
		candidate := origin.Add(geom.FromHeading(angle).Scale(dist))

		snapped, err := g.Nav.SnapToTraversable(candidate, g.SnapTolerance)
		if err != nil {
			continue
		}
		length, err := g.Nav.ComputePathLength(origin, snapped)
		if err != nil || length < g.MinDistance || length > g.MaxDistance {
			continue
		}
		points = append(points, snapped)
	}
	return points
}

func (g *SearchGenerator) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	var f float64
	if g.Rand != nil {
		f = g.Rand.Float64()
	} else {
		f = rand.Float64()
	}
	return lo + f*(hi-lo)
}

// SearchResult is what a search tick reports to its owner.
type SearchResult int

const (
	SearchRunning SearchResult = iota
	SearchReacquired
	SearchExhausted
)

func (r SearchResult) String() string {
	switch r {
	case SearchRunning:
		return "running"
	case SearchReacquired:
		return "reacquired"
	case SearchExhausted:
		return "exhausted"
	}
	return "unknown"
}

type searchPhase int

const (
	phaseIdle searchPhase = iota
	phaseMoving
	phaseScanning
	phaseLookAround
	phaseDone
)

// Search sweeps a list of generated points: walk to each, look around,
// move on. It is owned by the Alert state and cancelled with it.
type Search struct {
	gen  SearchGenerator
	scan Scan
	cfg  Config

	points  []geom.Vec2
	cursor  int
	timer   float64
	issued  bool
	phase   searchPhase
	skipped int
}

func newSearch(a *Agent) *Search {
	cfg := a.cfg
	return &Search{
		gen: SearchGenerator{
			Nav:           a.nav,
			Rand:          a.rng,
			MinDistance:   cfg.SearchMinDistance,
			MaxDistance:   cfg.SearchMaxDistance,
			Spread:        cfg.SearchSpread,
			SnapTolerance: cfg.SnapTolerance,
			TargetPoints:  cfg.SearchPoints,
			MaxAttempts:   cfg.SearchAttempts,
		},
		scan: Scan{Angle: cfg.ScanAngle, Dwell: cfg.ScanDwell},
		cfg:  cfg,
	}
}

// Start discards any previous points and generates a new set around origin.
// With nothing accepted the search degrades to a look-around on the spot.
func (s *Search) Start(a *Agent, origin, dir geom.Vec2) {
	s.Cancel()
	s.points = s.gen.Generate(origin, dir)
	if len(s.points) == 0 {
		a.logger.Debug("search generation exhausted, looking around at origin",
			zap.String("agent", a.ID), zap.Int("attempts", s.gen.MaxAttempts))
		base := a.Pose.Heading
		if n, ok := dir.Normalize(); ok {
			base = n.Heading()
		}
		a.nav.Stop()
		s.scan.Start(base)
		s.phase = phaseLookAround
		return
	}
	a.logger.Debug("search started",
		zap.String("agent", a.ID), zap.Int("points", len(s.points)))
	s.phase = phaseMoving
}

// Update runs one tick. Re-acquiring the target beats everything else.
func (s *Search) Update(a *Agent, dt float64) SearchResult {
	switch s.phase {
	case phaseIdle, phaseDone:
		return SearchExhausted
	}
	if a.CanSeeTarget() {
		s.Cancel()
		return SearchReacquired
	}

	switch s.phase {
	case phaseLookAround:
		heading, done := s.scan.Update(dt)
		a.Pose.Heading = heading
		if done {
			s.phase = phaseDone
			return SearchExhausted
		}
		return SearchRunning

	case phaseScanning:
		heading, done := s.scan.Update(dt)
		a.Pose.Heading = heading
		if done {
			return s.advance()
		}
		return SearchRunning

	case phaseMoving:
		point := s.points[s.cursor]
		if !s.issued {
			a.nav.SetDestination(point)
			s.issued = true
			s.timer = 0
		}
		s.timer += dt
		if a.arrivedAt(point) {
			a.nav.Stop()
			s.scan.Start(a.Pose.Heading)
			s.phase = phaseScanning
			return SearchRunning
		}
		if !a.nav.HasValidPath() || (s.cfg.PointTimeout > 0 && elapsed(s.timer, s.cfg.PointTimeout)) {
			s.skipped++
			a.logger.Debug("search point given up",
				zap.String("agent", a.ID),
				zap.Int("point", s.cursor),
				zap.Bool("path_valid", a.nav.HasValidPath()),
				zap.Float64("waited", s.timer))
			a.nav.Stop()
			if s.cfg.ScanOnGiveUp {
				s.scan.Start(a.Pose.Heading)
				s.phase = phaseScanning
				return SearchRunning
			}
			return s.advance()
		}
		return SearchRunning
	}
	return SearchRunning
}

func (s *Search) advance() SearchResult {
	s.cursor++
	s.issued = false
	s.timer = 0
	if s.cursor >= len(s.points) {
		s.phase = phaseDone
		return SearchExhausted
	}
	s.phase = phaseMoving
	return SearchRunning
}

// Cancel stops all timers and forgets the points.
func (s *Search) Cancel() {
	s.scan.Cancel()
	s.points = nil
	s.cursor = 0
	s.timer = 0
	s.issued = false
	s.skipped = 0
	s.phase = phaseIdle
}

// Points returns the generated points. The slice must not be modified.
func (s *Search) Points() []geom.Vec2 { return s.points }

// Cursor is the index of the point being visited.
func (s *Search) Cursor() int { return s.cursor }

// LookingAround reports the fallback on-the-spot scan.
func (s *Search) LookingAround() bool { return s.phase == phaseLookAround }

// Active reports whether the search still has work to do.
func (s *Search) Active() bool {
	return s.phase != phaseIdle && s.phase != phaseDone
}
