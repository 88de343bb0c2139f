// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 24*time.Hour, cfg.Transfer.IdempotencyTTL)
	assert.Equal(t, "TRANSFER_FEE", cfg.Transfer.WalletFeeType)
	assert.Equal(t, 3, cfg.Notification.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Notification.BackoffBase)
	assert.Equal(t, "+256", cfg.Notification.DefaultCountryCode)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestFromViper_Currencies(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"currencies": []map[string]any{
			{"code": "ugx", "country": "ug", "clearing_account_id": 3, "fee_account_id": 4},
			{"code": "USD", "country": "US", "clearing_account_id": 1, "fee_account_id": 2},
		},
	}))
	require.NoError(t, err)
	require.Len(t, cfg.Currencies, 2)

	table := cfg.CurrencyTable()
	entry, ok := table.Lookup("UGX")
	require.True(t, ok)
	assert.Equal(t, int64(3), entry.ClearingAccountID)
	assert.Equal(t, int64(4), entry.FeeAccountID)

	cur, ok := table.CurrencyForCountry("UG")
	assert.True(t, ok)
	assert.Equal(t, "UGX", cur)
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]any{
		"bypass in production": {
			"app.env":                     "production",
			"security.pin_bypass_enabled": true,
			"security.pin_bypass_value":   "0000",
		},
		"bypass without value":  {"security.pin_bypass_enabled": true},
		"zero poll interval":    {"notification.poll_interval": 0},
		"zero attempts":         {"notification.max_attempts": 0},
		"empty fee type":        {"transfer.wallet_fee_type": ""},
		"missing database name": {"database.dbname": ""},
		"duplicate currency": {
			"currencies": []map[string]any{
				{"code": "USD", "clearing_account_id": 1, "fee_account_id": 2},
				{"code": "usd", "clearing_account_id": 3, "fee_account_id": 4},
			},
		},
		"currency without accounts": {
			"currencies": []map[string]any{{"code": "KES"}},
		},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fromViper(newViper(overrides))
			assert.Error(t, err)
		})
	}
}

func TestFromViper_OperatorIDs(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"security.operator_ids": []any{3, 11}}))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 11}, cfg.Security.OperatorIDs)

	cfg, err = fromViper(newViper(map[string]any{"security.operator_ids": "3,11 12"}))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 11, 12}, cfg.Security.OperatorIDs)

	none, err := fromViper(newViper(nil))
	require.NoError(t, err)
	assert.Empty(t, none.Security.OperatorIDs)

	_, err = fromViper(newViper(map[string]any{"security.operator_ids": "ops"}))
	assert.Error(t, err)
}

func TestPinBypass(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"security.pin_bypass_enabled": true,
		"security.pin_bypass_value":   "0000",
	}))
	require.NoError(t, err)

	value, ok := cfg.PinBypass()
	assert.True(t, ok)
	assert.Equal(t, "0000", value)

	cfg.App.Env = EnvProduction
	_, ok = cfg.PinBypass()
	assert.False(t, ok)

	off, err := fromViper(newViper(nil))
	require.NoError(t, err)
	_, ok = off.PinBypass()
	assert.False(t, ok)
}
