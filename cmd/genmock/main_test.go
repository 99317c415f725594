package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
)

func TestWriteFixture_SortsAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.json")
	alerts := []domain.AlertRecord{
		{ID: 9, Location: "Red Hook", Risk: "high", RiskScore: 81},
		{ID: 2, Location: "Astoria", Risk: " low ", RiskScore: 12},
	}

	require.NoError(t, writeFixture(path, alerts))

	loaded, err := domain.LoadFallbackFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, int64(2), loaded[0].ID)
	assert.Equal(t, domain.RiskLow, loaded[0].Risk)
	assert.Equal(t, domain.RiskHigh, loaded[1].Risk)

	// Caller's slice is untouched.
	assert.Equal(t, int64(9), alerts[0].ID)
	assert.Equal(t, "high", alerts[0].Risk)
}

func TestWriteFixture_DefaultSetRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.json")
	require.NoError(t, writeFixture(path, domain.DefaultFallback()))

	loaded, err := domain.LoadFallbackFile(path)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFallback(), loaded)
}
