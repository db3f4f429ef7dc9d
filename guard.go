package tamperfy

import (
	"fmt"
	"log/slog"
	"math"
)

// guard runs a single analyzer in isolation. A returned error, a NaN, or a
// panic yields the analyzer's fixed fallback and marks the signal degraded;
// the other analyzers are unaffected.
func (d *Detector) guard(name string, fallback float64, fn func() (float64, error)) (sig Signal) {
	defer func() {
		if r := recover(); r != nil {
			if d.cfg.OnPanic != nil {
				d.cfg.OnPanic(name, r)
			}
			slog.Debug("tamperfy: analyzer panic", "analyzer", name, "panic", fmt.Sprint(r))
			sig = Signal{Name: name, Value: fallback, Degraded: true}
		}
	}()

	v, err := fn()
	if err != nil {
		slog.Debug("tamperfy: analyzer failed", "analyzer", name, "error", err.Error())
		return Signal{Name: name, Value: fallback, Degraded: true}
	}
	if math.IsNaN(v) {
		return Signal{Name: name, Value: fallback, Degraded: true}
	}
	return Signal{Name: name, Value: clamp01(v)}
}
