package types

import (
	"context"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/mjpegview/pkg/framedecoder"
)

func TestOptionsConfig(t *testing.T) {
	ctx := context.Background()
	cfg := Options{
		OptionStartMarker{'-', '-'},
		OptionStopMarker{'\r', '\n'},
		OptionWindowSize(1024),
		OptionReuseBuffer(false),
		OptionPixelFormat(framedecoder.PixelFormatGray),
		OptionScaleOnDecode{Enable: true, Width: 320, Height: 240},
		OptionCodec(framedecoder.CodecAuto),
		OptionOpenTries(5),
	}.Config(ctx)

	assert.Equal(t, Marker("--"), cfg.StartMarker)
	assert.Equal(t, Marker("\r\n"), cfg.StopMarker)
	assert.Equal(t, 1024, cfg.WindowSize)
	assert.False(t, cfg.ReuseBuffer)
	assert.True(t, cfg.RateReporting)
	assert.Equal(t, 320, cfg.ScaleWidth)
	assert.Equal(t, 5, cfg.OpenTries)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, cfg, cfg.Options().Config(ctx))
	assert.Equal(t, DefaultConfig(ctx), Options(nil).Config(ctx))
}

func TestConfigValidate(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, DefaultConfig(ctx).Validate())

	cfg := Options{
		OptionStartMarker(nil),
		OptionStopMarker{},
		OptionWindowSize(0),
		OptionOpenTries(0),
		OptionPixelFormat("cmyk"),
	}.Config(ctx)
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	for _, substr := range []string{
		"start marker",
		"stop marker",
		"window size",
		"open tries",
		"pixel format",
	} {
		assert.Contains(t, err.Error(), substr)
	}
}

func TestMarkerYAML(t *testing.T) {
	cfg := DefaultConfig(context.Background())

	b, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(b), "start_marker: ff d8")
	assert.Contains(t, string(b), "stop_marker: ff d9")

	var parsed Config
	require.NoError(t, yaml.Unmarshal([]byte("start_marker: \"0x2d 2d\"\nstop_marker: 0d0a\n"), &parsed))
	assert.Equal(t, Marker("--"), parsed.StartMarker)
	assert.Equal(t, Marker("\r\n"), parsed.StopMarker)

	require.Error(t, yaml.Unmarshal([]byte("start_marker: xyz\n"), &parsed))
}

func TestParseMarker(t *testing.T) {
	m, err := ParseMarker(" 0xFFD8 ")
	require.NoError(t, err)
	assert.Equal(t, Marker{0xFF, 0xD8}, m)
	assert.Equal(t, "ff d8", m.String())

	_, err = ParseMarker("f")
	require.Error(t, err)
}

func TestConfigYAMLDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte("window_size: 2048\n"), &cfg))

	expected := DefaultConfig(context.Background())
	expected.WindowSize = 2048
	assert.Equal(t, expected, cfg)
}
