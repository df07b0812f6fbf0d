package frameproducer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mjpegview/pkg/clock"
	"github.com/xaionaro-go/mjpegview/pkg/framedecoder"
	"github.com/xaionaro-go/mjpegview/pkg/metrics"
)

// Loop decodes frames from Segments and publishes them to Consumer for as
// long as Running is set. It is not preemptible: the flag is checked
// between frames only.
type Loop struct {
	Segments      framedecoder.SegmentReader
	Decoder       *framedecoder.Decoder
	Consumer      Consumer
	Running       *atomic.Bool
	RateReporting bool
	Clock         clock.Clock
	Metrics       *metrics.Metrics
}

func (l *Loop) validate() error {
	switch {
	case l.Segments == nil:
		return fmt.Errorf("no segment reader")
	case l.Decoder == nil:
		return fmt.Errorf("no decoder")
	case l.Consumer == nil:
		return fmt.Errorf("no consumer")
	case l.Running == nil:
		return fmt.Errorf("no run flag")
	}
	return nil
}

// Run returns nil if the loop was stopped via the run flag (or ctx),
// framedecoder.ErrStreamEnded (possibly wrapping an I/O error) if the
// stream is over, and any other error if the stream is unusable.
func (l *Loop) Run(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "Run")
	defer func() { logger.Debugf(ctx, "/Run: %v", _err) }()

	if err := l.validate(); err != nil {
		return fmt.Errorf("invalid loop: %w", err)
	}
	m := l.Metrics
	if m == nil {
		m = metrics.New(nil)
	}

	var meter *RateMeter
	if l.RateReporting {
		meter = NewRateMeter(l.Clock, DefaultMaxRate)
		meter.Reset(ctx)
		defer func() {
			m.FramesPerSecond.Set(0)
			l.Consumer.OnRateSample(ctx, RateSample{Stopped: true})
		}()
	}

	for l.Running.Load() {
		frame, err := l.Decoder.DecodeNext(ctx, l.Segments)
		if err != nil {
			if !l.Running.Load() && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}

		l.Consumer.OnFrame(ctx, frame)
		m.FramesPublished.Inc()

		if meter == nil {
			continue
		}
		if sample, ok := meter.Observe(ctx); ok {
			m.FramesPerSecond.Set(float64(sample.FramesPerSecond))
			l.Consumer.OnRateSample(ctx, sample)
		}
	}
	return nil
}
