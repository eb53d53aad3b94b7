package profiler

import (
	"log"
	"runtime"
	"time"
)

// Stats is one reporting interval's worth of frame and memory statistics.
type Stats struct {
	Frames      int
	FPS         float64
	FrameTime   time.Duration
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	SysMB       float64
}

// Profiler tracks frame rate and memory statistics for the render loop.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	totalFrames    int
	lastTime       time.Time
	updateInterval time.Duration
	now            func() time.Time
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	quiet          bool
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerOption functions to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per rendered frame.
// Logs performance statistics when the update interval has elapsed: FPS, average frame time,
// heap usage, allocation rate, GC count/pause times and total memory.
//
// Returns:
//   - Stats: the statistics for the interval that just closed
//   - bool: true if an interval closed and stats were reported this tick
func (p *Profiler) Tick() (Stats, bool) {
	p.frameCount++
	p.totalFrames++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if p.updateInterval <= 0 || elapsed < p.updateInterval {
		return Stats{}, false
	}

	stats := Stats{
		Frames:    p.frameCount,
		FPS:       float64(p.frameCount) / elapsed.Seconds(),
		FrameTime: elapsed / time.Duration(p.frameCount),
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: bytes of live heap objects. TotalAlloc: cumulative, tracks churn. Sys: process footprint.
	stats.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	stats.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	stats.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	stats.GCCount = p.memStats.NumGC
	if stats.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		stats.LastPauseUs = p.memStats.PauseNs[(stats.GCCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if stats.GCCount-startIdx > 256 {
			startIdx = stats.GCCount - 256
		}
		for i := startIdx; i < stats.GCCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > stats.MaxPauseUs {
				stats.MaxPauseUs = pause
			}
		}
	}

	if !p.quiet {
		log.Printf("[Profiler] FPS: %.2f | Frame: %.3f ms | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			stats.FPS, float64(stats.FrameTime.Microseconds())/1000, stats.HeapMB, stats.AllocRateMB,
			stats.GCCount, stats.LastPauseUs, stats.MaxPauseUs, stats.SysMB)
	}

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = stats.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return stats, true
}

// TotalFrames returns the number of ticks since the profiler was created.
func (p *Profiler) TotalFrames() int {
	return p.totalFrames
}
