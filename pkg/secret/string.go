// Package secret holds credentials (like the camera password) in a form
// that does not leak via logging or %v formatting.
package secret

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/xaionaro-go/secret"
)

type String struct {
	value secret.Any[string]
	isSet bool
}

func New(in string) String {
	return String{value: secret.New(in), isSet: true}
}

func (s String) Get() string {
	if !s.isSet {
		return ""
	}
	return s.value.Get()
}

func (s *String) Set(in string) {
	*s = New(in)
}

func (s String) IsZero() bool {
	return s.Get() == ""
}

func (s String) String() string {
	if s.IsZero() {
		return ""
	}
	return "<HIDDEN>"
}

func (s String) GoString() string {
	return s.String()
}

func (s String) MarshalYAML() (any, error) {
	return s.Get(), nil
}

func (s *String) UnmarshalYAML(b []byte) error {
	var v string
	if err := yaml.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unable to yaml.Unmarshal: %w", err)
	}
	s.Set(v)
	return nil
}
