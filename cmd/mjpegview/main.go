package main

import (
	"context"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/sirupsen/logrus"
	"github.com/xaionaro-go/mjpegview/cmd/mjpegview/commands"
	"github.com/xaionaro-go/mjpegview/pkg/buildvars"
)

func getContext() context.Context {
	ll := xlogrus.DefaultLogrusLogger()
	ll.Out = os.Stderr
	formatter := ll.Formatter.(*logrus.TextFormatter)
	formatter.FullTimestamp = true
	l := xlogrus.New(ll).WithLevel(logger.LevelTrace)

	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	if buildvars.Version != "" {
		ctx = belt.WithField(ctx, "version", buildvars.Version)
	}
	return ctx
}

func main() {
	ctx := getContext()
	defer belt.Flush(ctx)

	if err := commands.Root.ExecuteContext(ctx); err != nil {
		logger.Panic(ctx, err)
	}
}
