// Package camera classifies raw shader-constant blocks as view-projection
// candidates and decomposes accepted blocks into view and projection parts.
package camera

import (
	"math"

	"github.com/MeKo-Tech/camlock/internal/mat"
)

// ScoreConfig holds the structural thresholds for candidate scoring. The
// defaults are empirically tuned; they are fields rather than literals so a
// host can retune them per engine.
type ScoreConfig struct {
	// ForwardMin/ForwardMax bound the perspective-row magnitude. For a
	// camera transform with an identity world component this row is the
	// unit forward axis, so it must sit near 1.
	ForwardMin float32 `mapstructure:"forward_min" yaml:"forward_min" json:"forward_min"`
	ForwardMax float32 `mapstructure:"forward_max" yaml:"forward_max" json:"forward_max"`

	// ForwardUnitSlack is the distance from exactly 1.0 inside which the
	// identity-world bonus applies.
	ForwardUnitSlack float32 `mapstructure:"forward_unit_slack" yaml:"forward_unit_slack" json:"forward_unit_slack"`

	// ScaleMin/ScaleMax bound the projection-scaled right/up axis
	// magnitudes, corresponding to a field of view between roughly 30 and
	// 140 degrees at unit aspect.
	ScaleMin float32 `mapstructure:"scale_min" yaml:"scale_min" json:"scale_min"`
	ScaleMax float32 `mapstructure:"scale_max" yaml:"scale_max" json:"scale_max"`

	// MinCameraDistance is the |f15| magnitude above which the
	// camera-distance bonus applies, ruling out placements at the origin.
	MinCameraDistance float32 `mapstructure:"min_camera_distance" yaml:"min_camera_distance" json:"min_camera_distance"`
}

// DefaultScoreConfig returns the stock scoring thresholds.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		ForwardMin:        0.8,
		ForwardMax:        1.2,
		ForwardUnitSlack:  0.05,
		ScaleMin:          0.3,
		ScaleMax:          5.0,
		MinCameraDistance: 10.0,
	}
}

// Score component values. The gates are hard requirements; bonuses are
// additive only. A passing block therefore scores between MinPassingScore
// and 14.
const (
	scoreForwardUnit  = 5
	bonusForwardExact = 3
	scorePerAxisScale = 2
	bonusCameraOffset = 2
	MinPassingScore   = scoreForwardUnit + 2*scorePerAxisScale
	MaxPossibleScore  = MinPassingScore + bonusForwardExact + bonusCameraOffset
)

// Score rates how strongly a block resembles a combined view-projection
// matrix. It returns 0 for a rejected block and a value in
// [MinPassingScore, MaxPossibleScore] otherwise. Non-finite input always
// rejects; the caller does not need to pre-validate.
func Score(b mat.Block, cfg ScoreConfig) int {
	if !b.Finite() {
		return 0
	}

	score := 0

	// Perspective row {3,7,11}: the camera forward axis. Anything far from
	// unit length cannot be a VP with identity world.
	fwd := mag3(b[3], b[7], b[11])
	if fwd < cfg.ForwardMin || fwd > cfg.ForwardMax {
		return 0
	}
	score += scoreForwardUnit
	if abs32(fwd-1.0) < cfg.ForwardUnitSlack {
		score += bonusForwardExact
	}

	// Cross-register rows {0,4,8} and {1,5,9}: projection-scaled right/up
	// axes. Their magnitudes are the projection's x/y scales.
	xs := mag3(b[0], b[4], b[8])
	if xs < cfg.ScaleMin || xs > cfg.ScaleMax {
		return 0
	}
	score += scorePerAxisScale

	ys := mag3(b[1], b[5], b[9])
	if ys < cfg.ScaleMin || ys > cfg.ScaleMax {
		return 0
	}
	score += scorePerAxisScale

	// f15 = -dot(forward, eye): distance along the view axis. A real camera
	// sits well away from the origin; UI quads do not.
	if abs32(b[15]) > cfg.MinCameraDistance {
		score += bonusCameraOffset
	}

	return score
}

func mag3(x, y, z float32) float32 {
	return float32(math.Sqrt(float64(x*x + y*y + z*z)))
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
