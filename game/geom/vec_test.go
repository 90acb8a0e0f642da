package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_ZeroLength(t *testing.T) {
	_, ok := Vec2{}.Normalize()
	assert.False(t, ok)

	_, ok = V(math.NaN(), 1).Normalize()
	assert.False(t, ok)

	n, ok := V(3, 4).Normalize()
	assert.True(t, ok)
	assert.InDelta(t, 0.6, n.X, 1e-9)
	assert.InDelta(t, 0.8, n.Y, 1e-9)
}

func TestNormalizeAngle_Wraps(t *testing.T) {
	assert.InDelta(t, -math.Pi/2, NormalizeAngle(3*math.Pi/2), 1e-9)
	assert.InDelta(t, math.Pi/2, NormalizeAngle(-3*math.Pi/2), 1e-9)
	assert.InDelta(t, 0.25, NormalizeAngle(0.25+4*math.Pi), 1e-9)
}

func TestPose_FaceTowards(t *testing.T) {
	p := Pose{Position: V(1, 1), Heading: 0}
	p.FaceTowards(V(1, 5))
	assert.InDelta(t, math.Pi/2, p.Heading, 1e-9)

	// Same spot: heading kept.
	p.FaceTowards(V(1, 1))
	assert.InDelta(t, math.Pi/2, p.Heading, 1e-9)
}
