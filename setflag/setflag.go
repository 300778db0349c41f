// Package setflag is a flag holding a set of strings from a fixed list of
// options, given comma-separated or by repeating the flag.
package setflag

import (
	"fmt"
	"slices"
	"strings"
)

func New(options ...string) *SetFlag {
	sf := &SetFlag{
		values:  make(map[string]struct{}, len(options)),
		options: make(map[string]struct{}, len(options)),
	}
	for _, opt := range options {
		sf.options[opt] = struct{}{}
	}
	return sf
}

// SetFlag implements pflag.Value.
type SetFlag struct {
	options map[string]struct{}
	values  map[string]struct{}
}

// List returns the values in sorted order.
func (sf *SetFlag) List() []string {
	var values []string
	for k := range sf.values {
		values = append(values, k)
	}
	slices.Sort(values)
	return values
}

func (sf *SetFlag) IsSet() bool {
	return len(sf.values) > 0
}

func (sf *SetFlag) String() string {
	return strings.Join(sf.List(), ",")
}

func (sf *SetFlag) Type() string {
	return "set"
}

func (sf *SetFlag) Set(value string) error {
	values := strings.Split(value, ",")
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, exists := sf.options[value]; !exists {
			return fmt.Errorf("unsupported value '%s'", value)
		}
		sf.values[value] = struct{}{}
	}
	return nil
}
