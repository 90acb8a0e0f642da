package ai

import (
	"github.com/kasuganosora/stalker/game/bus"
	"github.com/kasuganosora/stalker/game/geom"
)

// Hearing decides whether a broadcast sound reaches a listener.
type Hearing struct {
	Radius float64
}

// Heard applies both range limits: the listener's own hearing radius and
// the propagation radius of the sound. Either one failing means silence.
func (h Hearing) Heard(listener geom.Vec2, ev bus.SoundEvent) bool {
	if !listener.IsFinite() || !ev.Position.IsFinite() {
		return false
	}
	d := listener.Dist(ev.Position)
	return d <= h.Radius && d <= ev.Radius
}
