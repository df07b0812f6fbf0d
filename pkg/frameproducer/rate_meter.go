package frameproducer

import (
	"context"
	"time"

	"github.com/xaionaro-go/mjpegview/pkg/clock"
	"github.com/xaionaro-go/mjpegview/pkg/ringbuffer"
)

const (
	rateWindow = time.Second

	// DefaultMaxRate is the highest rate a RateMeter can report by default.
	DefaultMaxRate = 1024
)

// RateMeter counts events in a sliding one-second window of wall-clock time.
type RateMeter struct {
	Clock clock.Clock

	timestamps *ringbuffer.RingBuffer[time.Time]
	lastSample time.Time
}

func NewRateMeter(clk clock.Clock, maxRate uint) *RateMeter {
	if maxRate == 0 {
		maxRate = DefaultMaxRate
	}
	return &RateMeter{
		Clock:      clock.Or(clk),
		timestamps: ringbuffer.New[time.Time](maxRate),
	}
}

func (m *RateMeter) Reset(ctx context.Context) {
	m.timestamps.Reset(ctx)
	m.lastSample = m.Clock.Now()
}

// Observe records an event. It returns a sample if at least a second
// passed since the previous sample (or since Reset).
func (m *RateMeter) Observe(ctx context.Context) (RateSample, bool) {
	now := m.Clock.Now()
	m.timestamps.Add(ctx, now)
	if now.Sub(m.lastSample) < rateWindow {
		return RateSample{}, false
	}
	m.lastSample = now
	return RateSample{FramesPerSecond: m.countSince(ctx, now.Add(-rateWindow))}, true
}

func (m *RateMeter) countSince(ctx context.Context, since time.Time) uint32 {
	var count uint32
	m.timestamps.Range(ctx, func(ts time.Time) bool {
		if ts.After(since) {
			count++
		}
		return true
	})
	return count
}
