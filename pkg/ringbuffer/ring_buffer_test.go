package ringbuffer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(ctx context.Context, r *RingBuffer[int]) []int {
	var result []int
	r.Range(ctx, func(v int) bool {
		result = append(result, v)
		return true
	})
	return result
}

func TestRingBuffer(t *testing.T) {
	ctx := context.Background()
	r := New[int](3)

	assert.Zero(t, r.Len(ctx))
	assert.Empty(t, collect(ctx, r))

	r.Add(ctx, 1)
	r.Add(ctx, 2)
	assert.Equal(t, 2, r.Len(ctx))
	assert.Equal(t, []int{1, 2}, collect(ctx, r))

	r.Add(ctx, 3)
	r.Add(ctx, 4)
	r.Add(ctx, 5)
	assert.Equal(t, 3, r.Len(ctx))
	assert.Equal(t, []int{3, 4, 5}, collect(ctx, r))

	var firstTwo []int
	r.Range(ctx, func(v int) bool {
		firstTwo = append(firstTwo, v)
		return len(firstTwo) < 2
	})
	assert.Equal(t, []int{3, 4}, firstTwo)

	r.Reset(ctx)
	assert.Zero(t, r.Len(ctx))
	r.Add(ctx, 6)
	assert.Equal(t, []int{6}, collect(ctx, r))
}

func TestRingBufferZeroSize(t *testing.T) {
	ctx := context.Background()
	r := New[string](0)
	r.Add(ctx, "a")
	r.Add(ctx, "b")
	assert.Equal(t, 1, r.Len(ctx))
	r.Range(ctx, func(v string) bool {
		assert.Equal(t, "b", v)
		return true
	})
}
