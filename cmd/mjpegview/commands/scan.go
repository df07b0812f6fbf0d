package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/mjpegview/pkg/bytesource"
	"github.com/xaionaro-go/mjpegview/pkg/sequencescanner"
	"github.com/xaionaro-go/mjpegview/pkg/source"
)

func scan(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg := readConfig(cmd)
	applyFlags(cmd, &cfg)
	cfg.Source.URL = args[0]
	outDir := args[1]

	assertNoError(ctx, os.MkdirAll(outDir, 0755))

	producer, err := source.New(cfg.Source.URL, cfg.Source.Username, cfg.Source.Password)
	assertNoError(ctx, err)
	stream, err := producer.OpenStream(ctx)
	assertNoError(ctx, err)

	window := bytesource.NewWindow(stream, cfg.Player.WindowSize)
	defer func() { errmon.ObserveErrorCtx(ctx, window.Close()) }()
	scanner, err := sequencescanner.New(window, cfg.Player.StartMarker, cfg.Player.StopMarker)
	assertNoError(ctx, err)

	var count int
	for !scanner.IsEnded() {
		scanner.ResetWindow()
		path := filepath.Join(outDir, fmt.Sprintf("segment-%06d.bin", count))
		n, err := writeSegment(path, scanner)
		assertNoError(ctx, err)
		if n == 0 {
			break
		}
		logger.Debugf(ctx, "wrote %d bytes to '%s'", n, path)
		count++
	}
	if err := scanner.Err(); err != nil {
		logger.Errorf(ctx, "the stream ended with an error: %v", err)
	}

	fmt.Printf("%d segments, %s read\n", count, humanize.Bytes(window.BytesRead()))
}

func writeSegment(path string, segment io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("unable to create '%s': %w", path, err)
	}
	n, err := io.Copy(f, segment)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("unable to write the segment to '%s': %w", path, err)
	}
	if n == 0 {
		return 0, os.Remove(path)
	}
	return n, nil
}
