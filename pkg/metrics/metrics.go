// Package metrics exposes the diagnostic gauges and counters the pump and
// mixer publish. They are emitted, not consumed: nothing in this module
// reads them back, and this package takes no dependency on how (or
// whether) a scrape endpoint is ultimately wired up.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// FrameTime is the wall-clock seconds between the starts of the
	// mixer's two most recent ticks, sampled at the start of each tick.
	FrameTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framemixer_frame_time_seconds",
		Help: "Wall-clock time of the most recent frame-time update.",
	})

	// TickTime is the wall-clock seconds a full mix tick took.
	TickTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framemixer_tick_time_seconds",
		Help: "Wall-clock time of the most recent mixer tick.",
	})

	// InputBuffer is an occupancy ratio written by two sources: the demux
	// pump sets it to its video queue's size over capacity once per
	// iteration, and the mixer sets it to its task queue's size over
	// capacity at the end of each tick. It holds whichever was set last.
	InputBuffer = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "framemixer_input_buffer_ratio",
		Help: "Last reported queue occupancy ratio (demux video packet queue or mixer task queue).",
	})

	// SeekTotal counts successful loop-restart seeks performed by a demux
	// pump.
	SeekTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "framemixer_seek_total",
		Help: "Count of successful seek-to-start operations for looping inputs.",
	})
)

func init() {
	prometheus.MustRegister(FrameTime, TickTime, InputBuffer, SeekTotal)
}

// SetFrameTime publishes the frame-time metric.
func SetFrameTime(seconds float64) { FrameTime.Set(seconds) }

// SetTickTime publishes the tick-time metric.
func SetTickTime(seconds float64) { TickTime.Set(seconds) }

// SetInputBuffer publishes the input-buffer ratio metric.
func SetInputBuffer(ratio float64) { InputBuffer.Set(ratio) }

// IncSeek records one successful loop-restart seek.
func IncSeek() { SeekTotal.Inc() }
