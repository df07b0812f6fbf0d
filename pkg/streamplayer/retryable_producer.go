package streamplayer

import (
	"context"
	"fmt"
	"io"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// Producer opens the byte stream a player consumes, e.g. an HTTP response body.
type Producer interface {
	OpenStream(ctx context.Context) (io.ReadCloser, error)
}

type ProducerFunc func(ctx context.Context) (io.ReadCloser, error)

func (fn ProducerFunc) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	return fn(ctx)
}

type RetryableProducer struct {
	Producer Producer
	Tries    int
}

var _ Producer = (*RetryableProducer)(nil)

func wrapProducer(p Producer, tries int) *RetryableProducer {
	return &RetryableProducer{
		Producer: p,
		Tries:    max(tries, 1),
	}
}

func (p *RetryableProducer) OpenStream(ctx context.Context) (io.ReadCloser, error) {
	var lastErr error
	for i := range p.Tries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stream, err := p.Producer.OpenStream(ctx)
		if err == nil {
			if stream == nil {
				return nil, fmt.Errorf("the producer returned a nil stream")
			}
			return stream, nil
		}
		logger.Errorf(ctx, "producer: attempt %d failed: %v", i+1, err)
		lastErr = err
	}
	return nil, lastErr
}
