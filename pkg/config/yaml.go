package config

import (
	"fmt"
	"io"

	goyaml "github.com/go-yaml/yaml"
	"github.com/goccy/go-yaml"
	"github.com/xaionaro-go/datacounter"
)

var (
	_ io.Reader             = (*Config)(nil)
	_ io.ReaderFrom         = (*Config)(nil)
	_ io.WriterTo           = Config{}
	_ yaml.BytesUnmarshaler = (*Config)(nil)
	_ yaml.BytesMarshaler   = Config{}
)

// Read parses a whole YAML document; fields missing in it keep their values.
func (cfg *Config) Read(b []byte) (int, error) {
	return len(b), cfg.UnmarshalYAML(b)
}

func (cfg *Config) UnmarshalYAML(b []byte) error {
	if err := yaml.Unmarshal(b, (*config)(cfg)); err != nil {
		return fmt.Errorf("unable to parse the config: %w", err)
	}
	return cfg.Validate()
}

func (cfg *Config) ReadFrom(r io.Reader) (int64, error) {
	counter := datacounter.NewReaderCounter(r)
	b, err := io.ReadAll(counter)
	if err != nil {
		return int64(counter.Count()), fmt.Errorf("unable to read the config: %w", err)
	}
	_, err = cfg.Read(b)
	return int64(counter.Count()), err
}

func (cfg Config) WriteTo(w io.Writer) (int64, error) {
	b, err := cfg.MarshalYAML()
	if err != nil {
		return 0, err
	}
	counter := datacounter.NewWriterCounter(w)
	_, err = counter.Write(b)
	return int64(counter.Count()), err
}

// MarshalYAML serializes through goccy/go-yaml (so the custom marshalers of
// the fields are used) and re-indents the result with go-yaml/yaml.
func (cfg Config) MarshalYAML() ([]byte, error) {
	b, err := yaml.Marshal((config)(cfg))
	if err != nil {
		return nil, fmt.Errorf("unable to serialize the config: %w", err)
	}

	var tree map[string]any
	if err := goyaml.Unmarshal(b, &tree); err != nil {
		return nil, fmt.Errorf("unable to parse the serialized config: %w", err)
	}

	b, err = goyaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("unable to re-serialize the config: %w", err)
	}
	return b, nil
}
