package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/feerecon/internal/fee"
)

// FileName is the config file looked up in the working directory.
const FileName = "feerecon.yaml"

// Config represents the top-level feerecon.yaml configuration.
type Config struct {
	Rates          RatesConfig   `yaml:"rates"`
	Columns        ColumnsConfig `yaml:"columns"`
	PurchaseMarker string        `yaml:"purchase_marker"`
	Rounding       string        `yaml:"rounding"` // "half-even" or "half-up"
	Output         OutputConfig  `yaml:"output"`
	Log            LogConfig     `yaml:"log"`
}

// RatesConfig locates the commission rate file.
type RatesConfig struct {
	File       string `yaml:"file"`
	CodeHeader string `yaml:"code_header"`
	RateHeader string `yaml:"rate_header"`
}

// ColumnsConfig names the input columns read and the output columns added.
type ColumnsConfig struct {
	Type      string `yaml:"type"`
	Amount    string `yaml:"amount"`
	Fee       string `yaml:"fee"`
	Network   string `yaml:"network"`
	Computed  string `yaml:"computed"`
	Delta     string `yaml:"delta"`
	Source    string `yaml:"source"`
	Timestamp string `yaml:"timestamp"`
}

// Required returns the input columns every file must have.
func (c ColumnsConfig) Required() []string {
	return []string{c.Type, c.Amount, c.Fee, c.Network}
}

// OutputConfig controls output file names.
type OutputConfig struct {
	Report          string `yaml:"report"`
	ProcessedSuffix string `yaml:"processed_suffix"`
	RunLog          string `yaml:"run_log"` // empty disables the run log
}

// LogConfig controls console logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a feerecon.yaml file from disk. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that every name is set and the rounding mode is known.
func (c *Config) Validate() error {
	if _, err := fee.ParseRounding(c.Rounding); err != nil {
		return err
	}
	names := map[string]string{
		"rates.file":              c.Rates.File,
		"rates.code_header":       c.Rates.CodeHeader,
		"rates.rate_header":       c.Rates.RateHeader,
		"columns.type":            c.Columns.Type,
		"columns.amount":          c.Columns.Amount,
		"columns.fee":             c.Columns.Fee,
		"columns.network":         c.Columns.Network,
		"columns.computed":        c.Columns.Computed,
		"columns.delta":           c.Columns.Delta,
		"columns.source":          c.Columns.Source,
		"columns.timestamp":       c.Columns.Timestamp,
		"purchase_marker":         c.PurchaseMarker,
		"output.report":           c.Output.Report,
		"output.processed_suffix": c.Output.ProcessedSuffix,
	}
	var empty []string
	for key, v := range names {
		if strings.TrimSpace(v) == "" {
			empty = append(empty, key)
		}
	}
	if len(empty) > 0 {
		sort.Strings(empty)
		return fmt.Errorf("empty settings: %s", strings.Join(empty, ", "))
	}
	return nil
}

// RoundingMode returns the parsed rounding mode.
func (c *Config) RoundingMode() fee.Rounding {
	r, err := fee.ParseRounding(c.Rounding)
	if err != nil {
		return fee.HalfEven
	}
	return r
}

// Default returns the settings matching the partner file layout.
func Default() *Config {
	return &Config{
		Rates: RatesConfig{
			File:       "setup.xlsx",
			CodeHeader: "Тип карты",
			RateHeader: "Ставка комиссии",
		},
		Columns: ColumnsConfig{
			Type:      "TYPE",
			Amount:    "AMOUNT",
			Fee:       "COMMISSION",
			Network:   "PMT_SYSTEM_CODE",
			Computed:  "Комиссия (расчет)",
			Delta:     "Разница (F - U)",
			Source:    "Файл",
			Timestamp: "Время обработки",
		},
		PurchaseMarker: "ПОКУПКА",
		Rounding:       string(fee.HalfEven),
		Output: OutputConfig{
			Report:          "results.xlsx",
			ProcessedSuffix: "_processed",
			RunLog:          "logs/run-log.csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
