// Package config loads and validates the tiny.yaml feeder configuration.
//
// The file lives next to the executable. Every run reads it once at
// startup; there is no hot reload.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tiny-oracle/tinyd/pkg/helpers"
)

// FileName is the configuration file read from the executable's directory.
const FileName = "tiny.yaml"

// UsdtSymbol is the anchor asset every other price is multiplied by.
const UsdtSymbol = "USDT"

// Config is the full tiny.yaml document.
type Config struct {
	// Interval is the tick period in seconds. The --interval flag
	// overrides it only when the flag value is larger.
	Interval uint64 `yaml:"interval"`

	// Coins are the asset symbols to feed, e.g. ["BTC", "ETH", "USDT"].
	// USDT must appear exactly once.
	Coins []string `yaml:"coins"`
	// Decimals holds the on-chain scale per coin, index-aligned with Coins.
	Decimals []uint64 `yaml:"decimals"`
	// Imitations pins a fixed price per symbol, bypassing aggregation.
	Imitations map[string]float64 `yaml:"imitations"`

	// Algorithms is the pool of aggregation names: "average",
	// "median", "weighted", "max" or "backwad".
	Algorithms []string `yaml:"algorithms"`
	// Active selects the algorithm for non-anchor assets as
	// algorithms[active mod len(algorithms)].
	Active uint8 `yaml:"active"`
	// UsdtActive selects the algorithm for the USDT anchor the same
	// way Active does for everything else.
	UsdtActive uint8 `yaml:"usdt_active"`
	// Diffs maps a symbol to the backwad deviation tolerance as a
	// fraction, e.g. 0.01 for one percent. Missing symbols use 0.001.
	Diffs map[string]float64 `yaml:"diffs"`
	// Ratio is the backwad consensus ratio as a fraction, e.g. 0.66.
	Ratio float64 `yaml:"ratio"`

	// InvalidTime is the venue quote staleness window in milliseconds.
	// Tickers older than this are discarded by the adapters.
	InvalidTime uint64 `yaml:"invalid_time"`
	// CheckBalanceInterval is the gas balance sampling period in
	// milliseconds.
	CheckBalanceInterval uint64 `yaml:"check_balance_interval"`

	// PackageID is the oracle Move package object id.
	PackageID string `yaml:"package_id"`
	// OracleCap is the capability object passed as the first call arg.
	OracleCap string `yaml:"oracle_cap"`
	// PriceOracle is the oracle state object updated by the feed call.
	PriceOracle string `yaml:"price_oracle"`
	// RPCs are the fullnode endpoints, tried in order with rotation
	// on failure. At least one is required.
	RPCs []string `yaml:"rpcs"`

	// UseMulti switches submission to the weighted multisig path.
	UseMulti bool `yaml:"use_multi"`
	// MultiAddress is the multisig sender address. Validated against
	// the derived address when UseMulti is set.
	MultiAddress string `yaml:"multi_address"`
	// PublicKeys are the base64 ed25519 public keys of all committee
	// members, in committee order.
	PublicKeys []string `yaml:"publickeys"`
	// Weights are the committee weights, index-aligned with PublicKeys.
	Weights []uint8 `yaml:"weights"`
	// Threshold is the weight sum required for a valid multisig.
	Threshold uint16 `yaml:"threshold"`
	// Gas is the coin object spent as gas when UseMulti is set.
	Gas string `yaml:"gas"`
	// GasBudget caps the gas for each feed transaction, in MIST.
	GasBudget uint64 `yaml:"gas_budget"`
	// Balance is the alarm threshold for the gas balance, in MIST.
	Balance uint64 `yaml:"balance"`

	// SMTP mail settings for alarm delivery.
	SMTP     string `yaml:"smtp"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// Push gateway settings for balance metrics.
	Job          string `yaml:"job"`
	URL          string `yaml:"url"`
	Instance     string `yaml:"instance"`
	Desc         string `yaml:"desc"`
	PromUsername string `yaml:"prom_username"`
	PromPassword string `yaml:"prom_password"`
	IP           string `yaml:"ip"`
	Env          string `yaml:"env"`
	Account      string `yaml:"account"`

	// EnableBalanceAlarm emails the balance alarm besides pushing the
	// metric. EnablePriceAlarm emails aggregation failures.
	EnableBalanceAlarm bool `yaml:"enable_balance_alarm"`
	EnablePriceAlarm   bool `yaml:"enable_price_alarm"`

	// Daemon forks the process into the background on Linux.
	Daemon bool `yaml:"daemon"`
	// Single refuses to start when another instance holds the lock.
	Single bool `yaml:"single"`
	// Interactive prompts for the signing key on the terminal.
	Interactive bool `yaml:"interactive"`
	// LogCfg mirrors the console log into a rolling tiny.log.
	LogCfg bool `yaml:"log_cfg"`
}

// DefaultConfig returns a Config with the built-in defaults applied.
// Required fields stay empty and are caught by Validate.
func DefaultConfig() *Config {
	return &Config{
		Interval:             10,
		CheckBalanceInterval: 60_000,
	}
}

// Load reads tiny.yaml from the executable's directory.
func Load() (*Config, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	return LoadFrom(filepath.Join(filepath.Dir(exe), FileName))
}

// LoadFrom reads a configuration file from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the feeder refuses to start without.
func (c *Config) Validate() error {
	if len(c.Coins) == 0 {
		return fmt.Errorf("config: coins must not be empty")
	}
	usdt := 0
	for _, coin := range c.Coins {
		if coin == UsdtSymbol {
			usdt++
		}
	}
	if usdt != 1 {
		return fmt.Errorf("config: coins must contain %s exactly once, found %d", UsdtSymbol, usdt)
	}
	if len(c.Decimals) != len(c.Coins) {
		return fmt.Errorf("config: decimals length %d does not match coins length %d", len(c.Decimals), len(c.Coins))
	}
	if len(c.Algorithms) == 0 {
		return fmt.Errorf("config: algorithms must not be empty")
	}
	if len(c.RPCs) == 0 {
		return fmt.Errorf("config: rpcs must not be empty")
	}
	for _, id := range []struct{ name, value string }{
		{"package_id", c.PackageID},
		{"oracle_cap", c.OracleCap},
		{"price_oracle", c.PriceOracle},
	} {
		if !helpers.IsObjectID(id.value) {
			return fmt.Errorf("config: %s %q is not a valid object id", id.name, id.value)
		}
	}
	if c.UseMulti {
		if len(c.PublicKeys) == 0 {
			return fmt.Errorf("config: publickeys must not be empty when use_multi is set")
		}
		if len(c.Weights) != len(c.PublicKeys) {
			return fmt.Errorf("config: weights length %d does not match publickeys length %d", len(c.Weights), len(c.PublicKeys))
		}
		if c.Threshold == 0 {
			return fmt.Errorf("config: threshold must be positive when use_multi is set")
		}
		if !helpers.IsObjectID(c.Gas) {
			return fmt.Errorf("config: gas %q is not a valid object id", c.Gas)
		}
	}
	return nil
}

// USDTIndex returns the position of the USDT anchor within Coins.
// Validate guarantees exactly one occurrence.
func (c *Config) USDTIndex() int {
	for i, coin := range c.Coins {
		if coin == UsdtSymbol {
			return i
		}
	}
	return -1
}

// Diff returns the backwad deviation tolerance for a symbol, falling
// back to 0.001 when the symbol has no entry.
func (c *Config) Diff(symbol string) float64 {
	if v, ok := c.Diffs[symbol]; ok {
		return v
	}
	return 0.001
}
