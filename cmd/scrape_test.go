package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mspro-labs/scoop-scout/internal/db"
	"mspro-labs/scoop-scout/internal/models"
	"mspro-labs/scoop-scout/internal/orchestrator"
	"mspro-labs/scoop-scout/internal/registry"
	"mspro-labs/scoop-scout/internal/scraper"
)

func publishFixture(t *testing.T) (orchestrator.Report, *registry.Registry) {
	t.Helper()
	reg, err := registry.Parse([]byte(`
kopps:
  - id: kopps-brookfield
    name: Kopp's Brookfield
    url: https://kopps.example/flavors
murfs:
  - id: murfs-brookfield
    name: Murf's Brookfield
    url: https://murfs.example
`))
	require.NoError(t, err)

	report := orchestrator.Report{
		GeneratedAt: time.Date(2026, 10, 14, 17, 0, 0, 0, time.UTC),
		Outcomes: []scraper.Outcome{
			{Brand: "kopps", State: scraper.StateDone, Attempted: 1, Records: []models.FlavorRecord{
				{LocationID: "kopps-brookfield", Brand: "kopps", FlavorName: "Butter Pecan", Date: "2026-10-14"},
			}},
			{Brand: "murfs", State: scraper.StateDone, Attempted: 1, Reason: scraper.ErrNoFlavor},
		},
		EmptyBrands: []string{"murfs"},
	}
	return report, reg
}

func TestPublishWritesArtifactAndSnapshot(t *testing.T) {
	report, reg := publishFixture(t)
	database, err := db.Connect(":memory:")
	require.NoError(t, err)
	defer database.Close()

	out := filepath.Join(t.TempDir(), "flavors.json")
	require.NoError(t, publish(context.Background(), report, reg, time.UTC, out, database, zap.NewNop()))

	onDisk, err := os.ReadFile(out)
	require.NoError(t, err)

	snap, err := db.GetSnapshot(database)
	require.NoError(t, err)
	require.Equal(t, onDisk, snap.Artifact)
	require.Equal(t, 1, snap.FlavorCount)
	require.Equal(t, []string{"murfs"}, snap.EmptyBrands)
}

func TestPublishSkipsInterruptedRun(t *testing.T) {
	report, reg := publishFixture(t)
	database, err := db.Connect(":memory:")
	require.NoError(t, err)
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "flavors.json")
	err = publish(ctx, report, reg, time.UTC, out, database, zap.NewNop())
	require.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(out)
	require.True(t, os.IsNotExist(err))
	_, err = db.GetSnapshot(database)
	require.ErrorIs(t, err, db.ErrNoSnapshot)
}

func TestPublishWithoutDatabase(t *testing.T) {
	report, reg := publishFixture(t)

	out := filepath.Join(t.TempDir(), "data", "flavors.json")
	require.NoError(t, publish(context.Background(), report, reg, time.UTC, out, nil, zap.NewNop()))
	require.FileExists(t, out)
}
