package frameproducer

import (
	"context"
	"sync/atomic"

	"github.com/go-ng/xatomic"
	"github.com/xaionaro-go/mjpegview/pkg/framedecoder"
)

// LatestFrame is a single-slot frame holder: one goroutine publishes,
// another one reads the most recent frame. Frames that were replaced
// before anybody read them are dropped.
type LatestFrame struct {
	frame       *framedecoder.Frame
	updated     chan struct{}
	unread      atomic.Bool
	published   atomic.Uint64
	overwritten atomic.Uint64
}

func NewLatestFrame() *LatestFrame {
	return &LatestFrame{
		updated: make(chan struct{}, 1),
	}
}

// Publish never blocks.
func (h *LatestFrame) Publish(_ context.Context, frame *framedecoder.Frame) {
	xatomic.StorePointer(&h.frame, frame)
	h.published.Add(1)
	if h.unread.Swap(true) {
		h.overwritten.Add(1)
	}
	select {
	case h.updated <- struct{}{}:
	default:
	}
}

// Load returns the most recently published frame, or nil.
func (h *LatestFrame) Load() *framedecoder.Frame {
	h.unread.Store(false)
	return xatomic.LoadPointer(&h.frame)
}

// Updated receives a value after a Publish. Several publishes may
// collapse into a single notification.
func (h *LatestFrame) Updated() <-chan struct{} {
	return h.updated
}

func (h *LatestFrame) Published() uint64 {
	return h.published.Load()
}

// Overwritten is the amount of frames replaced before they were loaded.
func (h *LatestFrame) Overwritten() uint64 {
	return h.overwritten.Load()
}
