package ringbuffer

import (
	"context"

	"github.com/xaionaro-go/xsync"
)

// RingBuffer keeps the last cap(Storage) added items; older items are overwritten.
type RingBuffer[T any] struct {
	Storage           []T
	CurrentWriteIndex uint
	Locker            xsync.Mutex
}

func New[T any](size uint) *RingBuffer[T] {
	if size == 0 {
		size = 1
	}
	return &RingBuffer[T]{
		Storage: make([]T, 0, size),
	}
}

func (r *RingBuffer[T]) Add(ctx context.Context, item T) {
	r.Locker.Do(ctx, func() {
		if r.CurrentWriteIndex >= uint(len(r.Storage)) {
			r.Storage = r.Storage[:len(r.Storage)+1]
		}
		r.Storage[r.CurrentWriteIndex] = item
		r.CurrentWriteIndex++
		if r.CurrentWriteIndex >= uint(cap(r.Storage)) {
			r.CurrentWriteIndex = 0
		}
	})
}

func (r *RingBuffer[T]) Len(ctx context.Context) int {
	return xsync.DoR1(ctx, &r.Locker, func() int {
		return len(r.Storage)
	})
}

// Range calls fn for each stored item from the oldest to the newest
// until fn returns false.
func (r *RingBuffer[T]) Range(ctx context.Context, fn func(T) bool) {
	r.Locker.Do(ctx, func() {
		start := uint(0)
		if len(r.Storage) == cap(r.Storage) {
			start = r.CurrentWriteIndex
		}
		for i := range uint(len(r.Storage)) {
			if !fn(r.Storage[(start+i)%uint(len(r.Storage))]) {
				return
			}
		}
	})
}

func (r *RingBuffer[T]) Reset(ctx context.Context) {
	r.Locker.Do(ctx, func() {
		clear(r.Storage)
		r.Storage = r.Storage[:0]
		r.CurrentWriteIndex = 0
	})
}
