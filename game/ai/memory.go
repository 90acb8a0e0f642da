package ai

import "github.com/kasuganosora/stalker/game/geom"

// StimulusKind tags a PerceivedStimulus.
type StimulusKind int

const (
	StimulusSight StimulusKind = iota
	StimulusSound
)

func (k StimulusKind) String() string {
	if k == StimulusSound {
		return "sound"
	}
	return "sight"
}

// MarshalText lets StimulusKind appear as its name in JSON.
func (k StimulusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Stimulus is a single perception result. It is consumed immediately and
// never stored beyond the Memory it updates.
type Stimulus struct {
	Kind      StimulusKind
	Position  geom.Vec2
	Radius    float64 // sound only
	Timestamp float64 // sound only
}

// Memory is the agent's belief about where the target is and which way it
// was heading.
type Memory struct {
	LastKnownPosition geom.Vec2
	LastSeenDirection geom.Vec2
	Source            StimulusKind
	Valid             bool
}

// Apply overwrites the belief with a fresher stimulus perceived from
// observer. The direction is observer → stimulus; a stimulus on top of the
// observer keeps the previous direction.
func (m *Memory) Apply(observer geom.Vec2, s Stimulus) {
	m.LastKnownPosition = s.Position
	if d, ok := s.Position.Sub(observer).Normalize(); ok {
		m.LastSeenDirection = d
	}
	m.Source = s.Kind
	m.Valid = true
}

// See is Apply with a sight stimulus.
func (m *Memory) See(observer, target geom.Vec2) {
	m.Apply(observer, Stimulus{Kind: StimulusSight, Position: target})
}
