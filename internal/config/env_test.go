package config //nolint:testpackage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func envNameFor(name string) string {
	return strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(name))
}

func TestLookupEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name         string
		input        string
		badInput     string
		defaultValue any
		expected     any
		panics       bool
	}{
		{
			name:         "web.listen-address",
			defaultValue: ":5000",
			input:        ":5001",
			expected:     ":5001",
		},
		{
			name:         "debug.pprof",
			defaultValue: false,
			input:        "true",
			badInput:     "not-a-bool",
			expected:     true,
		},
		{
			name:         "some-int",
			defaultValue: 1336,
			input:        "1337",
			badInput:     "not-an-int",
			expected:     1337,
		},
		{
			name:         "some-uint",
			defaultValue: uint(1336),
			input:        "1337",
			badInput:     "not-a-uint",
			expected:     uint(1337),
		},
		{
			name:         "some-float",
			defaultValue: float64(1336),
			input:        "1337",
			expected:     float64(1337),
		},
		{
			name:         "unsupported-type",
			defaultValue: float32(1336),
			input:        "1337",
			panics:       true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			testFn := func() {
				require.Equal(t, tc.defaultValue, lookupEnvOrDefault(tc.name, tc.defaultValue))

				t.Setenv(envNameFor(tc.name), tc.input)
				require.Equal(t, tc.expected, lookupEnvOrDefault(tc.name, tc.defaultValue))

				if tc.badInput != "" {
					t.Setenv(envNameFor(tc.name), tc.badInput)
					require.Equal(t, tc.defaultValue, lookupEnvOrDefault(tc.name, tc.defaultValue))
				}
			}

			if tc.panics {
				require.Panics(t, testFn)
			} else {
				require.NotPanics(t, testFn)
			}
		})
	}
}
