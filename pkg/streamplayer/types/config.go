package types

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/mjpegview/pkg/bytesource"
	"github.com/xaionaro-go/mjpegview/pkg/framedecoder"
)

var ErrInvalidConfig = errors.New("invalid player config")

// Marker is a boundary byte sequence; it is written as space-separated
// hex bytes in YAML (a single string, so it never looks like a number).
type Marker []byte

func ParseMarker(s string) (Marker, error) {
	s = strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "0x"), " ", "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("unable to parse marker '%s': %w", s, err)
	}
	return b, nil
}

func (m Marker) String() string {
	return fmt.Sprintf("% x", []byte(m))
}

func (m Marker) MarshalYAML() (any, error) {
	return m.String(), nil
}

func (m *Marker) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseMarker(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

type Config struct {
	StartMarker    Marker                   `yaml:"start_marker"`
	StopMarker     Marker                   `yaml:"stop_marker"`
	WindowSize     int                      `yaml:"window_size"`
	ReuseBuffer    bool                     `yaml:"reuse_buffer"`
	RateReporting  bool                     `yaml:"rate_reporting"`
	PixelFormat    framedecoder.PixelFormat `yaml:"pixel_format"`
	PreferQuality  bool                     `yaml:"prefer_quality"`
	ScaleOnDecode  bool                     `yaml:"scale_on_decode"`
	ScaleWidth     int                      `yaml:"scale_width,omitempty"`
	ScaleHeight    int                      `yaml:"scale_height,omitempty"`
	Codec          framedecoder.Codec       `yaml:"codec"`
	TempBufferSize int                      `yaml:"temp_buffer_size"`
	OpenTries      int                      `yaml:"open_tries"`
}

// UnmarshalYAML fills the fields missing in the document with DefaultConfig.
func (cfg *Config) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Config
	result := plain(DefaultConfig(context.Background()))
	if err := unmarshal(&result); err != nil {
		return err
	}
	*cfg = Config(result)
	return nil
}

func (cfg Config) Options() Options {
	return Options{
		OptionStartMarker(cfg.StartMarker),
		OptionStopMarker(cfg.StopMarker),
		OptionWindowSize(cfg.WindowSize),
		OptionReuseBuffer(cfg.ReuseBuffer),
		OptionRateReporting(cfg.RateReporting),
		OptionPixelFormat(cfg.PixelFormat),
		OptionPreferQuality(cfg.PreferQuality),
		OptionScaleOnDecode{
			Enable: cfg.ScaleOnDecode,
			Width:  cfg.ScaleWidth,
			Height: cfg.ScaleHeight,
		},
		OptionCodec(cfg.Codec),
		OptionTempBufferSize(cfg.TempBufferSize),
		OptionOpenTries(cfg.OpenTries),
	}
}

func (cfg Config) DecoderOptions() framedecoder.Options {
	return framedecoder.Options{
		ReuseBuffer:    cfg.ReuseBuffer,
		PreferQuality:  cfg.PreferQuality,
		PixelFormat:    cfg.PixelFormat,
		Codec:          cfg.Codec,
		TempBufferSize: cfg.TempBufferSize,
		ScaleOnDecode:  cfg.ScaleOnDecode,
		ScaleWidth:     cfg.ScaleWidth,
		ScaleHeight:    cfg.ScaleHeight,
	}
}

// Validate reports all the problems of the config at once.
func (cfg Config) Validate() error {
	var mErr *multierror.Error
	if len(cfg.StartMarker) == 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("the start marker is empty"))
	}
	if len(cfg.StopMarker) == 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("the stop marker is empty"))
	}
	if cfg.WindowSize <= 0 {
		mErr = multierror.Append(mErr, fmt.Errorf("the window size should be positive, but it is %d", cfg.WindowSize))
	}
	if cfg.OpenTries < 1 {
		mErr = multierror.Append(mErr, fmt.Errorf("open tries should be at least 1, but it is %d", cfg.OpenTries))
	}
	if err := cfg.DecoderOptions().Validate(); err != nil {
		mErr = multierror.Append(mErr, err)
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

type Option interface {
	Apply(cfg *Config)
}

type Options []Option

func (s Options) Config(ctx context.Context) Config {
	cfg := DefaultConfig(ctx)
	s.apply(&cfg)
	return cfg
}

func (s Options) apply(cfg *Config) {
	for _, opt := range s {
		opt.Apply(cfg)
	}
}

var DefaultConfig = func(ctx context.Context) Config {
	decoderOpts := framedecoder.DefaultOptions()
	return Config{
		StartMarker:    Marker{0xFF, 0xD8},
		StopMarker:     Marker{0xFF, 0xD9},
		WindowSize:     bytesource.DefaultWindowSize,
		ReuseBuffer:    decoderOpts.ReuseBuffer,
		RateReporting:  true,
		PixelFormat:    decoderOpts.PixelFormat,
		PreferQuality:  decoderOpts.PreferQuality,
		Codec:          decoderOpts.Codec,
		TempBufferSize: decoderOpts.TempBufferSize,
		OpenTries:      2,
	}
}

type OptionStartMarker Marker

func (s OptionStartMarker) Apply(cfg *Config) {
	cfg.StartMarker = Marker(s)
}

type OptionStopMarker Marker

func (s OptionStopMarker) Apply(cfg *Config) {
	cfg.StopMarker = Marker(s)
}

type OptionWindowSize int

func (s OptionWindowSize) Apply(cfg *Config) {
	cfg.WindowSize = int(s)
}

type OptionReuseBuffer bool

func (s OptionReuseBuffer) Apply(cfg *Config) {
	cfg.ReuseBuffer = bool(s)
}

type OptionRateReporting bool

func (s OptionRateReporting) Apply(cfg *Config) {
	cfg.RateReporting = bool(s)
}

type OptionPixelFormat framedecoder.PixelFormat

func (s OptionPixelFormat) Apply(cfg *Config) {
	cfg.PixelFormat = framedecoder.PixelFormat(s)
}

type OptionPreferQuality bool

func (s OptionPreferQuality) Apply(cfg *Config) {
	cfg.PreferQuality = bool(s)
}

type OptionScaleOnDecode struct {
	Enable bool
	Width  int
	Height int
}

func (s OptionScaleOnDecode) Apply(cfg *Config) {
	cfg.ScaleOnDecode = s.Enable
	cfg.ScaleWidth = s.Width
	cfg.ScaleHeight = s.Height
}

type OptionCodec framedecoder.Codec

func (s OptionCodec) Apply(cfg *Config) {
	cfg.Codec = framedecoder.Codec(s)
}

type OptionTempBufferSize int

func (s OptionTempBufferSize) Apply(cfg *Config) {
	cfg.TempBufferSize = int(s)
}

type OptionOpenTries int

func (s OptionOpenTries) Apply(cfg *Config) {
	cfg.OpenTries = int(s)
}
