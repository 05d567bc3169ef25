// Package behavior translates declarative motion parameters into the ordered
// list of behavior descriptors the scroll engine is assembled with. Resolution
// is a pure function of the configuration; the Resolver adds memoization on
// input equality so render passes do not recompute an unchanged list.
package behavior

import (
	"errors"
	"fmt"
)

// Resolution errors.
var (
	// ErrConflictingMotion is returned when auto-advance and the ticker
	// are both enabled. The two produce competing scroll intent, so the
	// conflict is rejected at configuration time instead of arbitrated.
	ErrConflictingMotion = errors.New("auto-advance and ticker are mutually exclusive")

	// ErrTickerSpeed is returned for an enabled ticker with zero speed.
	ErrTickerSpeed = errors.New("ticker speed cannot be zero")

	// ErrForceAxis is returned for an unknown wheel axis override.
	ErrForceAxis = errors.New("force axis must be x, y, or empty")
)

// Auto-advance speed is clamped, not validated: the knob is a fraction of
// full speed in (0, 1], and out-of-range values mean "slowest" or "fastest".
const (
	minAutoAdvanceSpeed = 0.01
	maxAutoAdvanceSpeed = 1.0

	// DefaultLimitSeconds is the base interval used when none is given.
	DefaultLimitSeconds = 4.0
)

// Kind identifies one composable behavior.
type Kind string

const (
	KindAutoAdvance Kind = "auto-advance"
	KindTicker      Kind = "ticker"
	KindWheel       Kind = "wheel"
	KindActiveTag   Kind = "active-tag"
)

// Axis is a forced input axis for wheel mapping. Empty auto-detects from the
// engine orientation.
type Axis string

const (
	AxisAuto Axis = ""
	AxisX    Axis = "x"
	AxisY    Axis = "y"
)

// AutoAdvance configures discrete auto-advance: the engine snaps forward one
// item every DelayMs.
type AutoAdvance struct {
	Enabled bool

	// Speed is a fraction of full speed in (0, 1], clamped.
	Speed float64

	// LimitSeconds is the base interval at full speed.
	LimitSeconds float64

	StopOnInteraction bool
	StopOnMouseEnter  bool
}

// Ticker configures continuous pixel scrolling.
type Ticker struct {
	Enabled bool

	// SpeedPxPerFrame is the per-frame displacement; the sign is the
	// direction. Passed through verbatim.
	SpeedPxPerFrame float64

	StopOnMouseEnter bool

	// ResumeDelayMs is the pause after pointer-leave before resuming.
	ResumeDelayMs int
}

// Wheel configures pointer-wheel input mapping.
type Wheel struct {
	Enabled   bool
	ForceAxis Axis
}

// ActiveTag toggles active-item tagging. It is independent of the motion
// behaviors and carries no parameters.
type ActiveTag struct {
	Enabled bool
}

// Config is the full declarative behavior surface. It is comparable, which
// is what the Resolver's memoization keys on.
type Config struct {
	AutoAdvance AutoAdvance
	Ticker      Ticker
	Wheel       Wheel
	ActiveTag   ActiveTag
}

// Descriptor is one resolved behavior, ready to hand to the engine
// assembly. Only the fields relevant to Kind are set.
type Descriptor struct {
	Kind Kind

	// Auto-advance
	DelayMs           int
	StopOnInteraction bool

	// Auto-advance and ticker
	StopOnMouseEnter bool

	// Ticker
	SpeedPxPerFrame float64
	ResumeDelayMs   int

	// Wheel
	ForceAxis Axis
}

// Resolve turns a Config into the ordered active-descriptor list. Order
// follows the config's declaration order; disabled behaviors are absent.
func Resolve(cfg Config) ([]Descriptor, error) {
	if cfg.AutoAdvance.Enabled && cfg.Ticker.Enabled {
		return nil, ErrConflictingMotion
	}

	var out []Descriptor

	if cfg.AutoAdvance.Enabled {
		speed := clampSpeed(cfg.AutoAdvance.Speed)
		limit := cfg.AutoAdvance.LimitSeconds
		if limit <= 0 {
			limit = DefaultLimitSeconds
		}

		out = append(out, Descriptor{
			Kind:              KindAutoAdvance,
			DelayMs:           int(limit / speed * 1000),
			StopOnInteraction: cfg.AutoAdvance.StopOnInteraction,
			StopOnMouseEnter:  cfg.AutoAdvance.StopOnMouseEnter,
		})
	}

	if cfg.Ticker.Enabled {
		if cfg.Ticker.SpeedPxPerFrame == 0 {
			return nil, ErrTickerSpeed
		}

		out = append(out, Descriptor{
			Kind:             KindTicker,
			SpeedPxPerFrame:  cfg.Ticker.SpeedPxPerFrame,
			StopOnMouseEnter: cfg.Ticker.StopOnMouseEnter,
			ResumeDelayMs:    cfg.Ticker.ResumeDelayMs,
		})
	}

	if cfg.Wheel.Enabled {
		switch cfg.Wheel.ForceAxis {
		case AxisAuto, AxisX, AxisY:
		default:
			return nil, fmt.Errorf("%w (got %q)", ErrForceAxis, cfg.Wheel.ForceAxis)
		}

		out = append(out, Descriptor{
			Kind:      KindWheel,
			ForceAxis: cfg.Wheel.ForceAxis,
		})
	}

	if cfg.ActiveTag.Enabled {
		out = append(out, Descriptor{Kind: KindActiveTag})
	}

	return out, nil
}

func clampSpeed(s float64) float64 {
	if s < minAutoAdvanceSpeed {
		return minAutoAdvanceSpeed
	}
	if s > maxAutoAdvanceSpeed {
		return maxAutoAdvanceSpeed
	}
	return s
}
