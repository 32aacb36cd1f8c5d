package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	Users        int
	Transactions int
	// Days spreads payment times over the window ending now.
	Days     int
	Seed     int64
	Truncate bool
}

func DefaultConfig() Config {
	return Config{
		Users:        25,
		Transactions: 200,
		Days:         60,
		Seed:         42,
		Truncate:     true,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyInt(lookup, "NOVAQUERY_SEED_USERS", &cfg.Users); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "NOVAQUERY_SEED_TRANSACTIONS", &cfg.Transactions); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "NOVAQUERY_SEED_DAYS", &cfg.Days); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "NOVAQUERY_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "NOVAQUERY_SEED_TRUNCATE", &cfg.Truncate); err != nil {
		return Config{}, err
	}

	if cfg.Users <= 0 {
		return Config{}, fmt.Errorf("NOVAQUERY_SEED_USERS must be > 0")
	}
	if cfg.Transactions < 0 {
		return Config{}, fmt.Errorf("NOVAQUERY_SEED_TRANSACTIONS must be >= 0")
	}
	if cfg.Days <= 0 {
		return Config{}, fmt.Errorf("NOVAQUERY_SEED_DAYS must be > 0")
	}
	return cfg, nil
}

// Window is the payment-time span covered by Days.
func (c Config) Window() time.Duration {
	return time.Duration(c.Days) * 24 * time.Hour
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
