package streamplayer

import (
	"github.com/xaionaro-go/mjpegview/pkg/streamplayer/types"
)

type Config = types.Config
type Option = types.Option
type Options = types.Options
type Marker = types.Marker

var ErrInvalidConfig = types.ErrInvalidConfig
