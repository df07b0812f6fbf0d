package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/xaionaro-go/mjpegview/pkg/config"
)

func configDefault(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	_, err := config.NewConfig(ctx).WriteTo(os.Stdout)
	assertNoError(ctx, err)
}
