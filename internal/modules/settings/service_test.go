package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(newTestRepository(t), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestDefaults_EveryStringSettingHasStringDefault(t *testing.T) {
	for key := range StringSettings {
		def, ok := SettingDefaults[key]
		require.True(t, ok, "string setting %s has no default", key)
		_, isString := def.(string)
		assert.True(t, isString, "default for %s should be a string", key)
	}
	for key, def := range SettingDefaults {
		if StringSettings[key] {
			continue
		}
		_, isFloat := def.(float64)
		assert.True(t, isFloat, "default for %s should be float64", key)
	}
}

func TestDefaultEngineSettings(t *testing.T) {
	e := DefaultEngineSettings()

	assert.Equal(t, 30*time.Second, e.TickInterval)
	assert.Equal(t, "paper", e.TradingMode)
	assert.False(t, e.Live())
	assert.False(t, e.ManualPause)
	assert.Equal(t, []string{domain.NativeMint, domain.USDCMint}, e.ReserveMints)
	assert.Equal(t, 0.10, e.MaxDailyDrawdownPct)
	assert.Equal(t, 0.75, e.EquityCoverageThreshold)
	assert.Equal(t, 0.60, e.ExecutionCoverageThreshold)
	assert.Equal(t, 5, e.MaxRedistributionPasses)
	assert.Equal(t, []float64{1, 2, 4, 8}, e.FeeLadder)
	assert.Equal(t, int64(10000), e.FeeMinEntryLamports)
	assert.Equal(t, int64(1000000), e.FeeMaxCoreLamports)
	assert.True(t, e.FeeRatioGuardEnabled)
	assert.False(t, e.FeeGuardEnforce)
	assert.True(t, e.ExitLiquidityEnabled)
	assert.Nil(t, e.RouteDenyMints)
	assert.Equal(t, 30*time.Minute, e.MinHold)
}

func TestDefaultEngineSettings_HasNoWarnings(t *testing.T) {
	assert.Empty(t, Validate(DefaultEngineSettings()))
}

func TestService_SetAndSnapshot(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Set("manual_pause", true))
	require.NoError(t, svc.Set("min_trade_usd", 25.0))
	require.NoError(t, svc.Set("tick_interval_seconds", "15"))
	require.NoError(t, svc.Set("fee_ladder", "1,3,9"))
	require.NoError(t, svc.Set("route_deny_mints", []interface{}{"badA", "badB"}))

	snap, err := svc.Snapshot()
	require.NoError(t, err)
	assert.True(t, snap.ManualPause)
	assert.Equal(t, 25.0, snap.MinTradeUSD)
	assert.Equal(t, 15*time.Second, snap.TickInterval)
	assert.Equal(t, []float64{1, 3, 9}, snap.FeeLadder)
	assert.Equal(t, []string{"badA", "badB"}, snap.RouteDenyMints)
}

func TestService_SetRejectsUnknownAndInvalid(t *testing.T) {
	svc := newTestService(t)

	err := svc.Set("no_such_key", 1.0)
	assert.ErrorIs(t, err, ErrUnknownSetting)

	err = svc.Set("min_trade_usd", "lots")
	assert.Error(t, err)
}

func TestService_GetAllMergesDefaults(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Set("min_trade_usd", 42.0))

	all, err := svc.GetAll()
	require.NoError(t, err)
	assert.Equal(t, 42.0, all["min_trade_usd"])
	assert.Equal(t, "paper", all["trading_mode"])
	assert.Len(t, all, len(SettingDefaults))
}

func TestService_SnapshotFallsBackOnInvalidStoredValue(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.repo.Set("min_trade_usd", "NaN", nil))

	snap, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 10.0, snap.MinTradeUSD)
}

func TestService_SeedFromYAML(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Set("min_trade_usd", 50.0))

	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
min_trade_usd: 5
trading_mode: live
fee_ladder: "1,2,3"
manual_pause: true
unknown_key: 1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	written, err := svc.SeedFromYAML(path)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	snap, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 50.0, snap.MinTradeUSD, "operator value must not be overwritten")
	assert.True(t, snap.Live())
	assert.True(t, snap.ManualPause)
	assert.Equal(t, []float64{1, 2, 3}, snap.FeeLadder)
}

func TestService_SeedFromYAMLMissingFile(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.SeedFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
