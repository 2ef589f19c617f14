package types_test

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/jkroepke/logscrape-exporter/internal/config/types"
	"github.com/stretchr/testify/require"
)

func TestHostListScalar(t *testing.T) {
	t.Parallel()

	var list types.HostList

	require.NoError(t, yaml.Unmarshal([]byte(`"host-a"`), &list))
	require.Equal(t, types.HostList{"host-a"}, list)
}

func TestHostListMulti(t *testing.T) {
	t.Parallel()

	var list types.HostList

	require.NoError(t, yaml.Unmarshal([]byte(`["host-a", "host-b"]`), &list))
	require.Equal(t, types.HostList{"host-a", "host-b"}, list)
}

func TestHostListRejectsNonStringEntries(t *testing.T) {
	t.Parallel()

	var list types.HostList

	err := yaml.Unmarshal([]byte(`[1, 2]`), &list)
	require.Error(t, err)
}
