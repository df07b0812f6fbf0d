package commands

import (
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/mjpegview/pkg/config"
	"github.com/xaionaro-go/mjpegview/pkg/framedecoder"
	"github.com/xaionaro-go/mjpegview/pkg/secret"
	"github.com/xaionaro-go/mjpegview/pkg/streamplayer/types"
)

// applyFlags overrides the config with the flags set explicitly.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	ctx := cmd.Context()
	flags := cmd.Flags()

	setMarker := func(name string, dst *types.Marker) {
		if !flags.Changed(name) {
			return
		}
		s, err := flags.GetString(name)
		assertNoError(ctx, err)
		m, err := types.ParseMarker(s)
		assertNoError(ctx, err)
		*dst = m
	}
	setMarker("start-marker", &cfg.Player.StartMarker)
	setMarker("stop-marker", &cfg.Player.StopMarker)

	setInt := func(name string, dst *int) {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			return
		}
		v, err := flags.GetInt(name)
		assertNoError(ctx, err)
		*dst = v
	}
	setInt("window-size", &cfg.Player.WindowSize)
	setInt("snapshot-max-width", &cfg.Snapshot.MaxWidth)
	setInt("snapshot-max-height", &cfg.Snapshot.MaxHeight)
	setInt("scale-width", &cfg.Player.ScaleWidth)
	setInt("scale-height", &cfg.Player.ScaleHeight)
	if cfg.Player.ScaleWidth > 0 && cfg.Player.ScaleHeight > 0 {
		cfg.Player.ScaleOnDecode = true
	}

	setString := func(name string, dst *string) {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			return
		}
		v, err := flags.GetString(name)
		assertNoError(ctx, err)
		*dst = v
	}
	setString("username", &cfg.Source.Username)
	setString("snapshot", &cfg.Snapshot.Path)
	setString("metrics-addr", &cfg.MetricsAddr)

	var password string
	setString("password", &password)
	if password != "" {
		cfg.Source.Password = secret.New(password)
	}

	var pixelFormat, codec string
	setString("pixel-format", &pixelFormat)
	if pixelFormat != "" {
		cfg.Player.PixelFormat = framedecoder.PixelFormat(pixelFormat)
	}
	setString("codec", &codec)
	if codec != "" {
		cfg.Player.Codec = framedecoder.Codec(codec)
	}

	setBool := func(name string, dst *bool, invert bool) {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			return
		}
		v, err := flags.GetBool(name)
		assertNoError(ctx, err)
		*dst = v != invert
	}
	setBool("no-reuse-buffer", &cfg.Player.ReuseBuffer, true)
	setBool("no-rate", &cfg.Player.RateReporting, true)
	setBool("prefer-quality", &cfg.Player.PreferQuality, false)

	if flags.Lookup("snapshot-interval") != nil && flags.Changed("snapshot-interval") {
		v, err := flags.GetDuration("snapshot-interval")
		assertNoError(ctx, err)
		cfg.Snapshot.Interval = v
	}
}
