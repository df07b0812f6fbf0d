// Package frameproducer drives a segment reader and a frame decoder in a
// loop and hands the decoded frames to a consumer.
package frameproducer

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/mjpegview/pkg/framedecoder"
)

// RateSample is a frames-per-second notification. Stopped samples carry
// no rate: they mean the producer loop is not running anymore.
type RateSample struct {
	FramesPerSecond uint32
	Stopped         bool
}

func (s RateSample) String() string {
	if s.Stopped {
		return "Stopped"
	}
	return fmt.Sprintf("%d fps", s.FramesPerSecond)
}

// Consumer receives the output of a Loop. Both methods are called on the
// producer goroutine and should return quickly.
type Consumer interface {
	OnFrame(ctx context.Context, frame *framedecoder.Frame)
	OnRateSample(ctx context.Context, sample RateSample)
}

type ConsumerFuncs struct {
	OnFrameFunc      func(ctx context.Context, frame *framedecoder.Frame)
	OnRateSampleFunc func(ctx context.Context, sample RateSample)
}

var _ Consumer = (*ConsumerFuncs)(nil)

func (c ConsumerFuncs) OnFrame(ctx context.Context, frame *framedecoder.Frame) {
	if c.OnFrameFunc != nil {
		c.OnFrameFunc(ctx, frame)
	}
}

func (c ConsumerFuncs) OnRateSample(ctx context.Context, sample RateSample) {
	if c.OnRateSampleFunc != nil {
		c.OnRateSampleFunc(ctx, sample)
	}
}

// Consumers fans the notifications out in order.
type Consumers []Consumer

var _ Consumer = (Consumers)(nil)

func (s Consumers) OnFrame(ctx context.Context, frame *framedecoder.Frame) {
	for _, c := range s {
		c.OnFrame(ctx, frame)
	}
}

func (s Consumers) OnRateSample(ctx context.Context, sample RateSample) {
	for _, c := range s {
		c.OnRateSample(ctx, sample)
	}
}
