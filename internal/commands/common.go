package commands

import (
	"fmt"
	"path/filepath"

	"github.com/cleared-dev/feerecon/internal/config"
	"github.com/cleared-dev/feerecon/internal/rates"
)

// dirArg resolves the optional directory argument.
func dirArg(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return absDir, nil
}

// loadConfig reads the config at path, or <dir>/feerecon.yaml when path is
// empty. Only an explicit path must exist.
func loadConfig(dir, path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault(filepath.Join(dir, config.FileName))
}

// inDir resolves name against dir unless it is absolute.
func inDir(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func rateHeaders(cfg *config.Config) rates.Headers {
	return rates.Headers{Code: cfg.Rates.CodeHeader, Rate: cfg.Rates.RateHeader}
}
