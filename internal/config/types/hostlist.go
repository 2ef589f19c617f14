// Package types holds small YAML-friendly value types shared by the scrape
// configuration, mirroring the parent config package's convention of giving
// "scalar-or-list" YAML fields their own named type instead of ad-hoc
// interface{} handling at every call site.
package types

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// HostList accepts either a single YAML scalar string or a list of strings,
// as the scrape config's "ssh.environments.*.hosts" field does.
type HostList []string

// UnmarshalYAML implements goccy/go-yaml's BytesUnmarshaler interface.
func (h *HostList) UnmarshalYAML(b []byte) error {
	var single string
	if err := yaml.Unmarshal(b, &single); err == nil {
		*h = HostList{single}

		return nil
	}

	var multi []string
	if err := yaml.Unmarshal(b, &multi); err != nil {
		return fmt.Errorf("hosts must be a string or a list of strings: %w", err)
	}

	*h = multi

	return nil
}
