package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/xaionaro-go/mjpegview/pkg/buildvars"
	"github.com/xaionaro-go/mjpegview/pkg/config"
	"github.com/xaionaro-go/mjpegview/pkg/xpath"
)

var (
	// Access these variables only from a main package:

	Root = &cobra.Command{
		Use:   os.Args[0],
		Short: "a viewer of MJPEG (multipart) camera streams",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			l := logger.FromCtx(ctx).WithLevel(LoggerLevel)
			ctx = logger.CtxWithLogger(ctx, l)
			cmd.SetContext(ctx)
			logger.Debugf(ctx, "log-level: %v", LoggerLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			logger.Debug(ctx, "end")
		},
	}

	Play = &cobra.Command{
		Use:   "play [url-or-path]",
		Short: "decode a stream and report its frame rate",
		Args:  cobra.MaximumNArgs(1),
		Run:   play,
	}

	Scan = &cobra.Command{
		Use:   "scan <url-or-path> <output-dir>",
		Short: "split a stream into segment files without decoding them",
		Args:  cobra.ExactArgs(2),
		Run:   scan,
	}

	Config = &cobra.Command{
		Use: "config",
	}

	ConfigDefault = &cobra.Command{
		Use:   "default",
		Short: "print the default config",
		Args:  cobra.ExactArgs(0),
		Run:   configDefault,
	}

	Version = &cobra.Command{
		Use:   "version",
		Short: "print the version of the build",
		Args:  cobra.ExactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildvars.Summary())
		},
	}

	LoggerLevel = logger.LevelWarning
)

func init() {
	Root.AddCommand(Play)
	Root.AddCommand(Scan)
	Root.AddCommand(Config)
	Config.AddCommand(ConfigDefault)
	Root.AddCommand(Version)

	Root.PersistentFlags().Var(&LoggerLevel, "log-level", "")
	Root.PersistentFlags().String("config", "", "the path to the config file (created if it does not exist)")
	Root.PersistentFlags().String("start-marker", "", "the start marker as hex bytes, e.g. 'ff d8'")
	Root.PersistentFlags().String("stop-marker", "", "the stop marker as hex bytes, e.g. 'ff d9'")
	Root.PersistentFlags().Int("window-size", 0, "the maximal size of a segment in bytes")
	Root.PersistentFlags().String("username", "", "the username of the camera")
	Root.PersistentFlags().String("password", "", "the password of the camera")

	Play.Flags().String("snapshot", "", "write the latest frame to this file (.png, .jpg or .webp)")
	Play.Flags().Duration("snapshot-interval", 0, "how often to write the snapshot")
	Play.Flags().Int("snapshot-max-width", 0, "fit the snapshot into this width")
	Play.Flags().Int("snapshot-max-height", 0, "fit the snapshot into this height")
	Play.Flags().String("metrics-addr", "", "address to serve Prometheus metrics on, e.g. 'localhost:9090'")
	Play.Flags().String("pixel-format", "", "rgba, gray or native")
	Play.Flags().String("codec", "", "auto, jpeg, png or webp")
	Play.Flags().Bool("no-reuse-buffer", false, "allocate a new buffer for every frame")
	Play.Flags().Bool("no-rate", false, "do not print the frame rate")
	Play.Flags().Bool("prefer-quality", false, "prefer quality over speed when scaling")
	Play.Flags().Int("scale-width", 0, "scale frames on decode to fit into this width")
	Play.Flags().Int("scale-height", 0, "scale frames on decode to fit into this height")
}

func assertNoError(ctx context.Context, err error) {
	if err != nil {
		logger.Panic(ctx, err)
	}
}

func readConfig(cmd *cobra.Command) config.Config {
	ctx := cmd.Context()

	cfgPath, err := cmd.Flags().GetString("config")
	assertNoError(ctx, err)

	if cfgPath == "" {
		return config.NewConfig(ctx)
	}
	cfgPath, err = xpath.Expand(cfgPath)
	assertNoError(ctx, err)
	cfg, err := config.ReadOrCreateConfigFile(ctx, cfgPath)
	assertNoError(ctx, err)
	return *cfg
}
