package ai

import (
	"errors"
	"fmt"
	"math"
)

// Config is the per-agent tuning, in simulation units: distances in world
// units, durations in seconds, angles in radians.
type Config struct {
	ViewAngle     float64 // full cone width
	ViewDistance  float64
	HearingRadius float64
	KillRange     float64
	StareDuration float64

	SearchMinDistance float64
	SearchMaxDistance float64
	SearchSpread      float64 // full arc around the perceived direction
	SearchPoints      int     // accepted points wanted
	SearchAttempts    int     // generation trials cap
	SnapTolerance     float64

	ArriveThreshold float64
	PointTimeout    float64
	ScanDwell       float64
	ScanAngle       float64
	// ScanOnGiveUp runs the look-around from wherever the agent stopped when
	// a search point times out or becomes unreachable.
	ScanOnGiveUp bool

	KillDelay float64

	MoveSpeed  float64
	ChaseSpeed float64
}

// DefaultConfig returns tuning that plays well on a 1-unit tile grid.
func DefaultConfig() Config {
	return Config{
		ViewAngle:         math.Pi / 2,
		ViewDistance:      10,
		HearingRadius:     8,
		KillRange:         1.2,
		StareDuration:     1.5,
		SearchMinDistance: 3,
		SearchMaxDistance: 6,
		SearchSpread:      math.Pi / 2,
		SearchPoints:      3,
		SearchAttempts:    20,
		SnapTolerance:     1,
		ArriveThreshold:   0.5,
		PointTimeout:      8,
		ScanDwell:         1,
		ScanAngle:         math.Pi / 3,
		ScanOnGiveUp:      true,
		KillDelay:         1,
		MoveSpeed:         2.5,
		ChaseSpeed:        4,
	}
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("ai: invalid config")

// Validate rejects tuning the state machine cannot run with.
func (c Config) Validate() error {
	type field struct {
		name string
		v    float64
	}
	positive := []field{
		{"view_angle", c.ViewAngle},
		{"view_distance", c.ViewDistance},
		{"kill_range", c.KillRange},
		{"arrive_threshold", c.ArriveThreshold},
	}
	for _, f := range positive {
		if !(f.v > 0) {
			return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidConfig, f.name, f.v)
		}
	}
	nonNegative := []field{
		{"hearing_radius", c.HearingRadius},
		{"stare_duration", c.StareDuration},
		{"search_min_distance", c.SearchMinDistance},
		{"search_spread", c.SearchSpread},
		{"snap_tolerance", c.SnapTolerance},
		{"point_timeout", c.PointTimeout},
		{"scan_dwell", c.ScanDwell},
		{"kill_delay", c.KillDelay},
		{"move_speed", c.MoveSpeed},
		{"chase_speed", c.ChaseSpeed},
	}
	for _, f := range nonNegative {
		if !(f.v >= 0) {
			return fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidConfig, f.name, f.v)
		}
	}
	if c.SearchMaxDistance < c.SearchMinDistance {
		return fmt.Errorf("%w: search_max_distance %v < search_min_distance %v",
			ErrInvalidConfig, c.SearchMaxDistance, c.SearchMinDistance)
	}
	if c.SearchPoints < 0 || c.SearchAttempts < 0 {
		return fmt.Errorf("%w: search_points and search_attempts must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// timeEpsilon absorbs float drift when summing per-tick deltas.
const timeEpsilon = 1e-9

func elapsed(acc, limit float64) bool {
	return acc+timeEpsilon >= limit
}
