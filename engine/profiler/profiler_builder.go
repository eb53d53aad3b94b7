package profiler

import "time"

// ProfilerOption is a functional option used to configure a Profiler during construction.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are reported. A zero or negative interval disables reporting.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - ProfilerOption: a function that sets the reporting interval
func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		p.updateInterval = interval
	}
}

// WithQuiet suppresses log output; Tick still returns the statistics.
func WithQuiet(quiet bool) ProfilerOption {
	return func(p *Profiler) {
		p.quiet = quiet
	}
}

// withClock replaces time.Now.
func withClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}
