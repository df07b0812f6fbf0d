// Package streamplayer controls the lifecycle of a frame producer loop:
// it starts at most one loop at a time and stops it cooperatively.
package streamplayer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/xaionaro-go/mjpegview/pkg/bytesource"
	"github.com/xaionaro-go/mjpegview/pkg/clock"
	"github.com/xaionaro-go/mjpegview/pkg/framedecoder"
	"github.com/xaionaro-go/mjpegview/pkg/frameproducer"
	"github.com/xaionaro-go/mjpegview/pkg/metrics"
	"github.com/xaionaro-go/mjpegview/pkg/sequencescanner"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xcontext"
	"github.com/xaionaro-go/xsync"
)

var ErrNoProducer = errors.New("no stream producer")

type StreamPlayer struct {
	Config   Config
	Consumer frameproducer.Consumer
	Metrics  *metrics.Metrics
	Clock    clock.Clock

	locker   xsync.Mutex
	running  *atomic.Bool
	producer Producer
	cancel   context.CancelFunc
	done     chan struct{}
	lastErr  error
}

func New(
	consumer frameproducer.Consumer,
	opts ...Option,
) (*StreamPlayer, error) {
	if consumer == nil {
		return nil, fmt.Errorf("%w: no consumer", ErrInvalidConfig)
	}
	cfg := Options(opts).Config(context.Background())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	close(done)
	return &StreamPlayer{
		Config:   cfg,
		Consumer: consumer,
		Metrics:  metrics.New(nil),
		running:  &atomic.Bool{},
		done:     done,
	}, nil
}

// Start starts a producer loop over a stream opened by producer.
// A nil producer means the producer of the previous Start.
//
// It returns false if the player is already running. If a previous loop is
// still finishing, the new one begins after it has exited.
func (p *StreamPlayer) Start(
	ctx context.Context,
	producer Producer,
) (_ret bool, _err error) {
	logger.Debugf(ctx, "Start")
	defer func() { logger.Debugf(ctx, "/Start: %v %v", _ret, _err) }()

	return xsync.DoR2(ctx, &p.locker, func() (bool, error) {
		if producer == nil {
			producer = p.producer
		}
		if producer == nil {
			return false, ErrNoProducer
		}
		if p.running.Load() {
			return false, nil
		}

		running := &atomic.Bool{}
		if !running.CompareAndSwap(false, true) {
			return false, fmt.Errorf("internal error: a fresh run flag is already set")
		}

		sessionID := uuid.New()
		ctx := belt.WithField(xcontext.DetachDone(ctx), "session_id", sessionID.String())
		ctx, cancelFn := context.WithCancel(ctx)

		prevDone := p.done
		done := make(chan struct{})
		p.running, p.producer, p.cancel, p.done = running, producer, cancelFn, done
		p.lastErr = nil

		observability.Go(ctx, func(ctx context.Context) {
			defer close(done)
			defer cancelFn()
			<-prevDone
			p.run(ctx, running, producer)
		})
		return true, nil
	})
}

// Stop clears the run flag. The loop notices it after the segment it is
// reading at the moment; in-flight reads are not interrupted.
//
// If wait is true, Stop returns after the loop has exited or when ctx is done.
func (p *StreamPlayer) Stop(
	ctx context.Context,
	wait bool,
) (_err error) {
	logger.Debugf(ctx, "Stop(ctx, %t)", wait)
	defer func() { logger.Debugf(ctx, "/Stop(ctx, %t): %v", wait, _err) }()

	var cancelFn context.CancelFunc
	var done <-chan struct{}
	p.locker.Do(ctx, func() {
		if p.running.CompareAndSwap(true, false) {
			cancelFn = p.cancel
		}
		done = p.done
	})
	if cancelFn != nil {
		cancelFn()
	}
	if !wait {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *StreamPlayer) IsRunning() bool {
	return xsync.DoR1(context.TODO(), &p.locker, func() bool {
		return p.running.Load()
	})
}

// Done is closed when the latest started loop has exited.
func (p *StreamPlayer) Done() <-chan struct{} {
	return xsync.DoR1(context.TODO(), &p.locker, func() <-chan struct{} {
		return p.done
	})
}

// Err returns why the latest loop exited: nil if it was stopped or
// the stream ended cleanly.
func (p *StreamPlayer) Err() error {
	return xsync.DoR1(context.TODO(), &p.locker, func() error {
		return p.lastErr
	})
}

func (p *StreamPlayer) Close() error {
	return p.Stop(context.Background(), true)
}

func (p *StreamPlayer) run(
	ctx context.Context,
	running *atomic.Bool,
	producer Producer,
) {
	logger.Debugf(ctx, "run")
	defer logger.Debugf(ctx, "/run")

	err := p.play(ctx, running, producer)
	running.CompareAndSwap(true, false)

	reason := metrics.ExitReasonFailed
	switch {
	case err == nil:
		reason = metrics.ExitReasonStopped
	case err == framedecoder.ErrStreamEnded: // a wrapped one carries an I/O failure
		reason = metrics.ExitReasonEnded
		err = nil
	default:
		logger.Errorf(ctx, "the player exited: %v", err)
	}
	p.Metrics.PlayerExits.WithLabelValues(reason).Inc()

	p.locker.Do(ctx, func() {
		p.lastErr = err
	})
}

func (p *StreamPlayer) play(
	ctx context.Context,
	running *atomic.Bool,
	producer Producer,
) (_err error) {
	if !running.Load() {
		return nil
	}

	// Stop cancels ctx, but it must not interrupt a read in progress.
	streamCtx := xcontext.DetachDone(ctx)
	stream, err := wrapProducer(producer, p.Config.OpenTries).OpenStream(streamCtx)
	if err != nil {
		if p.Config.RateReporting {
			p.Consumer.OnRateSample(ctx, frameproducer.RateSample{Stopped: true})
		}
		return fmt.Errorf("unable to open the stream: %w", err)
	}

	window := bytesource.NewWindow(stream, p.Config.WindowSize)
	defer func() {
		logger.Debugf(ctx, "received %s", humanize.Bytes(window.BytesRead()))
		errmon.ObserveErrorCtx(ctx, window.Close())
	}()

	scanner, err := sequencescanner.New(window, p.Config.StartMarker, p.Config.StopMarker)
	if err != nil {
		return err
	}
	decoder, err := framedecoder.New(p.Config.DecoderOptions(), p.Metrics)
	if err != nil {
		return err
	}

	loop := &frameproducer.Loop{
		Segments:      scanner,
		Decoder:       decoder,
		Consumer:      p.Consumer,
		Running:       running,
		RateReporting: p.Config.RateReporting,
		Clock:         p.Clock,
		Metrics:       p.Metrics,
	}
	return loop.Run(ctx)
}
