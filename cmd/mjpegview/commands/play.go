package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/mjpegview/pkg/framedecoder"
	"github.com/xaionaro-go/mjpegview/pkg/frameproducer"
	"github.com/xaionaro-go/mjpegview/pkg/metrics"
	"github.com/xaionaro-go/mjpegview/pkg/snapshotter"
	"github.com/xaionaro-go/mjpegview/pkg/source"
	"github.com/xaionaro-go/mjpegview/pkg/streamplayer"
	"github.com/xaionaro-go/mjpegview/pkg/xpath"
	"github.com/xaionaro-go/observability"
)

func play(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	cfg := readConfig(cmd)
	applyFlags(cmd, &cfg)
	if len(args) > 0 {
		cfg.Source.URL = args[0]
	}
	if cfg.Source.URL == "" {
		assertNoError(ctx, fmt.Errorf("no stream address given (neither as an argument nor in the config)"))
	}

	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()

	producer, err := source.New(cfg.Source.URL, cfg.Source.Username, cfg.Source.Password)
	assertNoError(ctx, err)

	latest := frameproducer.NewLatestFrame()
	consumers := frameproducer.Consumers{
		frameproducer.ConsumerFuncs{
			OnFrameFunc: latest.Publish,
			OnRateSampleFunc: func(ctx context.Context, sample frameproducer.RateSample) {
				fmt.Println(sample.String())
			},
		},
	}

	var snap *snapshotter.Snapshotter
	if cfg.Snapshot.Path != "" {
		cfg.Snapshot.Path, err = xpath.Expand(cfg.Snapshot.Path)
		assertNoError(ctx, err)
		snap, err = snapshotter.New(cfg.Snapshot)
		assertNoError(ctx, err)
		snap.Start(ctx)
		consumers = append(consumers, snap)
	}

	player, err := streamplayer.New(consumers, cfg.Player.Options()...)
	assertNoError(ctx, err)

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		player.Metrics = metrics.New(reg)
		serveMetrics(ctx, cfg.MetricsAddr, reg)
	}

	_, err = player.Start(ctx, producer)
	assertNoError(ctx, err)
	done := player.Done()

	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	select {
	case <-done:
	case <-sigCtx.Done():
		logger.Infof(ctx, "stopping")
		assertNoError(ctx, player.Stop(ctx, true))
	}

	if snap != nil {
		_, err := snap.WriteLatest(ctx)
		assertNoError(ctx, err)
	}
	if frame := latest.Load(); frame != nil {
		printSummary(frame, latest)
	}
	assertNoError(ctx, player.Err())
}

func printSummary(last *framedecoder.Frame, latest *frameproducer.LatestFrame) {
	fmt.Fprintf(os.Stderr, "%d frames, the last one is %dx%d\n",
		latest.Published(), last.Width(), last.Height())
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	observability.Go(ctx, func(ctx context.Context) {
		logger.Infof(ctx, "starting to serve metrics at '%s'", addr)
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf(ctx, "unable to serve metrics: %v", err)
		}
	})
	observability.Go(ctx, func(ctx context.Context) {
		<-ctx.Done()
		srv.Close()
	})
}
