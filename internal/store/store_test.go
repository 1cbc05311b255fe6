package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behonest/leadscore-cli/internal/config"
	"github.com/behonest/leadscore-cli/internal/model"
)

func TestOpen_SQLite(t *testing.T) {
	st, err := Open(context.Background(), config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &SQLiteStore{}, st)
}

func TestOpen_DefaultsToSQLite(t *testing.T) {
	st, err := Open(context.Background(), config.StoreConfig{
		DatabaseURL: filepath.Join(t.TempDir(), "default.db"),
	})
	require.NoError(t, err)
	defer st.Close()

	assert.IsType(t, &SQLiteStore{}, st)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestBatches(t *testing.T) {
	leads := make([]model.EnrichedLead, 250)
	out := batches(leads)

	require.Len(t, out, 3)
	assert.Len(t, out[0], 100)
	assert.Len(t, out[1], 100)
	assert.Len(t, out[2], 50)
}

func TestBatchesEmpty(t *testing.T) {
	assert.Empty(t, batches(nil))
}
