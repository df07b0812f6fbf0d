// Package snapshotter periodically writes the most recent frame of a
// player to an image file.
package snapshotter

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/datacounter"
	"github.com/xaionaro-go/mjpegview/pkg/clock"
	"github.com/xaionaro-go/mjpegview/pkg/framedecoder"
	"github.com/xaionaro-go/mjpegview/pkg/frameproducer"
	"github.com/xaionaro-go/observability"
	"github.com/xaionaro-go/xsync"
)

const (
	DefaultInterval = time.Second
	DefaultQuality  = 80
)

type Config struct {
	Path      string        `yaml:"path"`
	Interval  time.Duration `yaml:"interval"`
	MaxWidth  int           `yaml:"max_width,omitempty"`
	MaxHeight int           `yaml:"max_height,omitempty"`
	Quality   float32       `yaml:"quality"`
}

func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Quality:  DefaultQuality,
	}
}

// UnmarshalYAML fills the fields missing in the document with DefaultConfig.
func (cfg *Config) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Config
	result := plain(DefaultConfig())
	if err := unmarshal(&result); err != nil {
		return err
	}
	*cfg = Config(result)
	return nil
}

// Validate checks the config; an empty Path is valid and means "disabled".
func (cfg Config) Validate() error {
	var result *multierror.Error
	if cfg.Interval <= 0 {
		result = multierror.Append(result, fmt.Errorf("the interval should be positive, but it is %v", cfg.Interval))
	}
	if cfg.MaxWidth < 0 || cfg.MaxHeight < 0 {
		result = multierror.Append(result, fmt.Errorf("negative max size %dx%d", cfg.MaxWidth, cfg.MaxHeight))
	}
	if cfg.Quality < 0 || cfg.Quality > 100 {
		result = multierror.Append(result, fmt.Errorf("the quality should be within [0, 100], but it is %v", cfg.Quality))
	}
	if cfg.Path != "" {
		if _, err := FormatFromPath(cfg.Path); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Snapshotter is a frameproducer.Consumer. It copies a frame at most once
// per Interval on the producer goroutine (frame buffers are reused by the
// decoder) and writes the copies from its own goroutine.
type Snapshotter struct {
	Config Config
	Format Format
	Clock  clock.Clock

	latest      *frameproducer.LatestFrame
	lastCopyAt  time.Time
	copies      uint64
	writeLocker xsync.Mutex
	lastWritten uint64
	written     uint64
}

var _ frameproducer.Consumer = (*Snapshotter)(nil)

func New(cfg Config) (*Snapshotter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format, err := FormatFromPath(cfg.Path)
	if err != nil {
		return nil, err
	}
	return &Snapshotter{
		Config: cfg,
		Format: format,
		latest: frameproducer.NewLatestFrame(),
	}, nil
}

func (s *Snapshotter) OnFrame(ctx context.Context, frame *framedecoder.Frame) {
	now := clock.Or(s.Clock).Now()
	if !s.lastCopyAt.IsZero() && now.Sub(s.lastCopyAt) < s.Config.Interval {
		return
	}
	s.lastCopyAt = now
	// frame sequences restart with every player run
	s.copies++

	img := imgFitTo(frame.Image, image.Point{X: s.Config.MaxWidth, Y: s.Config.MaxHeight})
	s.latest.Publish(ctx, &framedecoder.Frame{
		Image:     img,
		Format:    framedecoder.PixelFormatNative,
		Sequence:  s.copies,
		DecodedAt: frame.DecodedAt,
	})
}

func (s *Snapshotter) OnRateSample(context.Context, frameproducer.RateSample) {}

// Start writes a snapshot every Interval until ctx is done.
func (s *Snapshotter) Start(ctx context.Context) {
	ticker := clock.Or(s.Clock).Ticker(s.Config.Interval)
	observability.Go(ctx, func(ctx context.Context) {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if _, err := s.WriteLatest(ctx); err != nil {
				logger.Errorf(ctx, "unable to write a snapshot: %v", err)
			}
		}
	})
}

// WriteLatest writes the latest copied frame unless it was already written.
func (s *Snapshotter) WriteLatest(ctx context.Context) (bool, error) {
	return xsync.DoR2(ctx, &s.writeLocker, func() (bool, error) {
		frame := s.latest.Load()
		if frame == nil || frame.Sequence == s.lastWritten {
			return false, nil
		}
		if err := s.writeFile(ctx, frame.Image); err != nil {
			return false, err
		}
		s.lastWritten = frame.Sequence
		s.written++
		return true, nil
	})
}

func (s *Snapshotter) Written() uint64 {
	return xsync.DoR1(context.TODO(), &s.writeLocker, func() uint64 {
		return s.written
	})
}

func (s *Snapshotter) writeFile(ctx context.Context, img image.Image) (_err error) {
	dir, name := filepath.Split(s.Config.Path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("unable to create a temporary file: %w", err)
	}
	defer func() {
		if _err != nil {
			os.Remove(f.Name())
		}
	}()

	counter := datacounter.NewWriterCounter(f)
	w := bufio.NewWriter(counter)
	if err := encodeImage(w, img, s.Format, s.Config.Quality); err != nil {
		f.Close()
		return fmt.Errorf("unable to encode the snapshot with %s: %w", s.Format, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("unable to write the snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to close '%s': %w", f.Name(), err)
	}
	if err := os.Rename(f.Name(), s.Config.Path); err != nil {
		return fmt.Errorf("unable to rename '%s' to '%s': %w", f.Name(), s.Config.Path, err)
	}
	logger.Debugf(ctx, "wrote a %s snapshot to '%s'", humanize.Bytes(counter.Count()), s.Config.Path)
	return nil
}
