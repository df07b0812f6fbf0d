// Package config is the configuration file of the mjpegview CLI.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/mjpegview/pkg/secret"
	"github.com/xaionaro-go/mjpegview/pkg/snapshotter"
	"github.com/xaionaro-go/mjpegview/pkg/streamplayer"
	"github.com/xaionaro-go/mjpegview/pkg/streamplayer/types"
)

type SourceConfig struct {
	URL      string        `yaml:"url"`
	Username string        `yaml:"username,omitempty"`
	Password secret.String `yaml:"password,omitempty"`
}

type config struct {
	Source      SourceConfig        `yaml:"source"`
	Player      streamplayer.Config `yaml:"player"`
	Snapshot    snapshotter.Config  `yaml:"snapshot"`
	MetricsAddr string              `yaml:"metrics_addr,omitempty"`
}

type Config config

func NewConfig(ctx context.Context) Config {
	return Config{
		Player:   types.DefaultConfig(ctx),
		Snapshot: snapshotter.DefaultConfig(),
	}
}

func (cfg Config) Validate() error {
	if err := cfg.Player.Validate(); err != nil {
		return err
	}
	if err := cfg.Snapshot.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot config: %w", err)
	}
	return nil
}

func ReadConfigFromPath(
	ctx context.Context,
	cfgPath string,
	cfg *Config,
) error {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("unable to read file '%s': %w", cfgPath, err)
	}

	_, err = cfg.Read(b)
	return err
}

func ReadOrCreateConfigFile(
	ctx context.Context,
	cfgPath string,
) (*Config, error) {
	_, err := os.Stat(cfgPath)
	switch {
	case err == nil:
		cfg := NewConfig(ctx)
		err := ReadConfigFromPath(ctx, cfgPath, &cfg)
		if err != nil {
			return nil, fmt.Errorf("unable to read the config from path '%s': %w", cfgPath, err)
		}
		return &cfg, nil
	case os.IsNotExist(err):
		logger.Debugf(ctx, "cannot find file '%s', creating", cfgPath)
		cfg := NewConfig(ctx)
		err := WriteConfigToPath(ctx, cfgPath, cfg)
		if err != nil {
			logger.Errorf(ctx, "unable to write config to path '%s': %v", cfgPath, err)
		}
		return &cfg, nil
	default:
		return nil, fmt.Errorf("unable to access file '%s': %w", cfgPath, err)
	}
}

func WriteConfigToPath(
	ctx context.Context,
	cfgPath string,
	cfg Config,
) error {
	pathNew := cfgPath + ".new"
	f, err := os.OpenFile(pathNew, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("unable to open the config file '%s': %w", pathNew, err)
	}
	_, err = cfg.WriteTo(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("unable to write data to file '%s': %w", pathNew, err)
	}
	err = os.Rename(pathNew, cfgPath)
	if err != nil {
		return fmt.Errorf("cannot move '%s' to '%s': %w", pathNew, cfgPath, err)
	}
	logger.Infof(ctx, "wrote the config to '%s'", cfgPath)
	return nil
}
