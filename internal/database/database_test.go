package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestMetricRoundTrip(t *testing.T) {
	store := openTestStore(t)

	value, err := store.GetMetric("ticks_completed")
	require.NoError(t, err)
	assert.Zero(t, value)

	require.NoError(t, store.SaveMetric("ticks_completed", "", "", 12))
	require.NoError(t, store.SaveMetric("ticks_completed", "", "", 15))

	value, err = store.GetMetric("ticks_completed")
	require.NoError(t, err)
	assert.Equal(t, 15.0, value)
}

func TestMetricsWithLabels(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveMetric("alerts_triggered", "asset", "btc", 3))
	require.NoError(t, store.SaveMetric("alerts_triggered", "asset", "eth", 1))
	require.NoError(t, store.SaveMetric("alerts_triggered", "", "", 99))

	labeled, err := store.GetMetricsWithLabels("alerts_triggered")
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]float64{
		"asset": {"btc": 3, "eth": 1},
	}, labeled)
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveMetric("messages_handled", "", "", 7))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	value, err := store.GetMetric("messages_handled")
	require.NoError(t, err)
	assert.Equal(t, 7.0, value)
}
