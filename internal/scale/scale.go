// Package scale holds the small numeric vocabulary shared by every system:
// bounded clamps and the five-step ordinal scale used for district levels.
package scale

import (
	"encoding/json"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Clamp bounds v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp100 bounds a gauge to [0, 100].
func Clamp100(v float64) float64 {
	return Clamp(v, 0, 100)
}

// Level is a five-step ordinal: very_low < low < medium < high < very_high.
type Level uint8

const (
	VeryLow Level = iota
	Low
	Medium
	High
	VeryHigh
)

var levelNames = [...]string{"very_low", "low", "medium", "high", "very_high"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", l)
}

// Up moves one step toward VeryHigh, saturating.
func (l Level) Up() Level {
	if l >= VeryHigh {
		return VeryHigh
	}
	return l + 1
}

// Down moves one step toward VeryLow, saturating.
func (l Level) Down() Level {
	if l == VeryLow {
		return VeryLow
	}
	return l - 1
}

// Multiplier maps the level to a feedback factor: 0.8 at very_low, 1.0 at
// medium, 1.4 at very_high.
func (l Level) Multiplier() float64 {
	switch l {
	case VeryLow:
		return 0.8
	case Low:
		return 0.9
	case Medium:
		return 1.0
	case High:
		return 1.2
	default:
		return 1.4
	}
}

// Penalty is the 0–90 score penalty used by district scores.
func (l Level) Penalty() float64 {
	switch l {
	case VeryLow:
		return 0
	case Low:
		return 10
	case Medium:
		return 30
	case High:
		return 60
	default:
		return 90
	}
}

// ParseLevel converts a level name.
func ParseLevel(s string) (Level, bool) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), true
		}
	}
	return VeryLow, false
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, ok := ParseLevel(s)
	if !ok {
		return fmt.Errorf("unknown level %q", s)
	}
	*l = v
	return nil
}
