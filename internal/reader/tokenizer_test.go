package reader_test

import (
	"testing"

	"github.com/jkroepke/logscrape-exporter/internal/reader"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		line     string
		expected []string
		wantErr  bool
	}{
		{
			name:     "simple fields",
			line:     "1.2.3.4 200 1024",
			expected: []string{"1.2.3.4", "200", "1024"},
		},
		{
			name:     "quoted request line",
			line:     `1.2.3.4 200 - "GET /x HTTP/1.1"`,
			expected: []string{"1.2.3.4", "200", "-", "GET /x HTTP/1.1"},
		},
		{
			name:    "empty line has no record",
			line:    "",
			wantErr: true,
		},
		{
			name:     "whitespace only line tokenizes to empty fields, not a blank line",
			line:     "   ",
			expected: []string{"", "", "", ""},
		},
		{
			name:    "unterminated quote is an error",
			line:    `1.2.3.4 200 - "GET /x HTTP/1.1`,
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tokens, err := reader.Tokenize(tc.line)
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expected, tokens)
		})
	}
}
