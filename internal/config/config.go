// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"remitflow-wallet/internal/domain"
	"remitflow-wallet/internal/util"
	"remitflow-wallet/pkg/db"
)

// EnvProduction is the only environment in which the PIN bypass is refused.
const EnvProduction = "production"

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	App          AppSection
	DB           db.Config
	Redis        RedisConfig
	Log          util.LogConfig
	Security     SecurityConfig
	Transfer     TransferConfig
	Notification NotificationConfig
	Currencies   []CurrencyConfig
}

// AppSection holds process-level settings.
type AppSection struct {
	Name string
	Env  string
	Port string
}

// RedisConfig holds the idempotency cache connection settings.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port for the redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SecurityConfig controls PIN verification and operator access.
type SecurityConfig struct {
	PinBypassEnabled bool
	PinBypassValue   string
	OperatorIDs      []int64
}

// TransferConfig holds transfer engine settings.
type TransferConfig struct {
	IdempotencyTTL   time.Duration
	WalletFeeType    string
	NonWalletFeeType string
	EmailReceipts    bool
}

// NotificationConfig holds dispatcher settings.
type NotificationConfig struct {
	PollInterval       time.Duration
	BatchSize          int
	MaxAttempts        int
	BackoffBase        time.Duration
	DefaultCountryCode string
}

// CurrencyConfig is one row of the currency table.
type CurrencyConfig struct {
	Code              string `mapstructure:"code"`
	Country           string `mapstructure:"country"`
	ClearingAccountID int64  `mapstructure:"clearing_account_id"`
	FeeAccountID      int64  `mapstructure:"fee_account_id"`
}

// LoadConfig reads config.yaml (if present) and WALLET_ prefixed environment variables.
// Environment variables win over the file, the file wins over built-in defaults.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/remitflow")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("WALLET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "remitflow-wallet")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "walletdb")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.run_migrations", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("security.pin_bypass_enabled", false)

	v.SetDefault("transfer.idempotency_ttl", 24*time.Hour)
	v.SetDefault("transfer.wallet_fee_type", "TRANSFER_FEE")
	v.SetDefault("transfer.non_wallet_fee_type", "REMITTANCE_FEE")
	v.SetDefault("transfer.email_receipts", false)

	v.SetDefault("notification.poll_interval", 5*time.Second)
	v.SetDefault("notification.batch_size", 100)
	v.SetDefault("notification.max_attempts", 3)
	v.SetDefault("notification.backoff_base", 5*time.Minute)
	v.SetDefault("notification.default_country_code", "+256")
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		App: AppSection{
			Name: v.GetString("app.name"),
			Env:  strings.ToLower(v.GetString("app.env")),
			Port: v.GetString("app.port"),
		},
		DB: db.Config{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			RunMigrations:   v.GetBool("database.run_migrations"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: util.LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Security: SecurityConfig{
			PinBypassEnabled: v.GetBool("security.pin_bypass_enabled"),
			PinBypassValue:   v.GetString("security.pin_bypass_value"),
		},
		Transfer: TransferConfig{
			IdempotencyTTL:   v.GetDuration("transfer.idempotency_ttl"),
			WalletFeeType:    v.GetString("transfer.wallet_fee_type"),
			NonWalletFeeType: v.GetString("transfer.non_wallet_fee_type"),
			EmailReceipts:    v.GetBool("transfer.email_receipts"),
		},
		Notification: NotificationConfig{
			PollInterval:       v.GetDuration("notification.poll_interval"),
			BatchSize:          v.GetInt("notification.batch_size"),
			MaxAttempts:        v.GetInt("notification.max_attempts"),
			BackoffBase:        v.GetDuration("notification.backoff_base"),
			DefaultCountryCode: v.GetString("notification.default_country_code"),
		},
	}

	operators, err := parseIDs(v.GetStringSlice("security.operator_ids"))
	if err != nil {
		return nil, fmt.Errorf("invalid security.operator_ids: %w", err)
	}
	cfg.Security.OperatorIDs = operators

	if err := v.UnmarshalKey("currencies", &cfg.Currencies); err != nil {
		return nil, fmt.Errorf("invalid currencies section: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseIDs accepts a YAML list or a comma or space separated env value.
func parseIDs(raw []string) ([]int64, error) {
	var ids []int64
	for _, item := range raw {
		for _, field := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' }) {
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%q is not a user id", field)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// IsProduction reports whether the process runs with production settings.
func (c *AppConfig) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// PinBypass returns the bypass value and whether it may be honoured.
func (c *AppConfig) PinBypass() (string, bool) {
	if !c.Security.PinBypassEnabled || c.IsProduction() || c.Security.PinBypassValue == "" {
		return "", false
	}
	return c.Security.PinBypassValue, true
}

// Validate checks the configuration for values the engine cannot run with.
func (c *AppConfig) Validate() error {
	if c.DB.DBName == "" {
		return errors.New("config: database.dbname is required")
	}
	if c.Security.PinBypassEnabled && c.IsProduction() {
		return errors.New("config: security.pin_bypass_enabled must not be set in production")
	}
	if c.Security.PinBypassEnabled && c.Security.PinBypassValue == "" {
		return errors.New("config: security.pin_bypass_value is required when the bypass is enabled")
	}
	if c.Notification.PollInterval <= 0 {
		return fmt.Errorf("config: notification.poll_interval must be positive, got %s", c.Notification.PollInterval)
	}
	if c.Notification.BackoffBase <= 0 {
		return fmt.Errorf("config: notification.backoff_base must be positive, got %s", c.Notification.BackoffBase)
	}
	if c.Notification.MaxAttempts <= 0 {
		return fmt.Errorf("config: notification.max_attempts must be positive, got %d", c.Notification.MaxAttempts)
	}
	if c.Notification.BatchSize <= 0 {
		return fmt.Errorf("config: notification.batch_size must be positive, got %d", c.Notification.BatchSize)
	}
	if c.Transfer.WalletFeeType == "" || c.Transfer.NonWalletFeeType == "" {
		return errors.New("config: transfer fee types must not be empty")
	}
	seen := make(map[string]bool, len(c.Currencies))
	for _, cur := range c.Currencies {
		code := strings.ToUpper(cur.Code)
		if code == "" {
			return errors.New("config: currency entry without code")
		}
		if seen[code] {
			return fmt.Errorf("config: currency %s listed twice", code)
		}
		seen[code] = true
		if cur.ClearingAccountID <= 0 || cur.FeeAccountID <= 0 {
			return fmt.Errorf("config: currency %s needs clearing_account_id and fee_account_id", code)
		}
	}
	return nil
}

// CurrencyTable builds the immutable currency lookup used by the transfer engine.
func (c *AppConfig) CurrencyTable() *domain.CurrencyTable {
	entries := make([]domain.CurrencyEntry, 0, len(c.Currencies))
	for _, cur := range c.Currencies {
		entries = append(entries, domain.CurrencyEntry{
			Currency:          strings.ToUpper(cur.Code),
			Country:           strings.ToUpper(cur.Country),
			ClearingAccountID: cur.ClearingAccountID,
			FeeAccountID:      cur.FeeAccountID,
		})
	}
	return domain.NewCurrencyTable(entries)
}
