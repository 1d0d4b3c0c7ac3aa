package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultCatalogIsValid(t *testing.T) {
	cat := DefaultCatalog()
	require.NoError(t, cat.Validate())

	cost, ok := cat.SupplyCost("Lemons")
	require.True(t, ok)
	assert.Equal(t, "0.5", cost.String())

	assert.Equal(t, 2, cat.MaxLevel(TrackJuicer))
	assert.Equal(t, 3, cat.MaxLevel(TrackMarketing))
	assert.Equal(t, 100, cat.ReputationCap(2))
	assert.Equal(t, "Food Truck", cat.TierFor(TrackStand, 99).Name)
	assert.Equal(t, 1.0, cat.WeatherFor("fog").CustomerMult)
}

func TestLoadCatalogOverlaysDefaults(t *testing.T) {
	path := writeCatalog(t, `
rules:
  customers:
    min: 40
    max: 60
  history_limit: 10
supplies:
  - item: lemons
    cost: 0.75
  - item: sugar
    cost: 0.20
  - item: cups
    cost: 0.10
  - item: ice
    cost: 0.05
start:
  cash: 100
`)
	cat, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, IntRange{Min: 40, Max: 60}, cat.Rules.Customers)
	assert.Equal(t, 10, cat.Rules.HistoryLimit)
	assert.Equal(t, 10.0, cat.Rules.MaxPrice, "untouched rules keep defaults")
	assert.Equal(t, 100.0, cat.Start.Cash)
	assert.Equal(t, 5, cat.Start.Inventory[ItemLemons])
	cost, _ := cat.SupplyCost(ItemLemons)
	assert.Equal(t, "0.75", cost.String())
	assert.Len(t, cat.Upgrades, 4)
}

func TestLoadCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing ice", body: "supplies:\n  - {item: lemons, cost: 0.5}\n  - {item: sugar, cost: 0.2}\n  - {item: cups, cost: 0.1}\n"},
		{name: "unknown achievement", body: "achievements:\n  - {id: moon_landing, name: Moon, reward: 5}\n"},
		{name: "bad price bounds", body: "rules:\n  min_price: 5\n  max_price: 1\n"},
		{name: "event chance", body: "events:\n  - {kind: rush, name: Rush, chance: 1.5}\n"},
		{name: "stand without cap", body: "upgrades:\n  - track: stand\n    tiers:\n      - {name: Box, cost: 0}\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, tc.body))
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
