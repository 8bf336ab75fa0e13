// Package discovery finds the partner files to reconcile in a directory.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/feerecon/internal/tabular"
)

// FileInfo describes an input file.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Exclusions names files in the directory that are outputs or settings
// rather than partner data.
type Exclusions struct {
	ReportPrefix    string   // base name of the consolidated report, e.g. "results"
	ProcessedSuffix string   // e.g. "_processed"
	Files           []string // exact names, e.g. the rate file
}

// processedExts are the extensions an annotated output may carry.
var processedExts = []string{".xlsx", ".xls", ".csv"}

// Scan returns supported files in dir, sorted by name. Subdirectories are
// not searched.
func Scan(dir string, ex Exclusions) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading input dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !tabular.Supported(name) || ex.excluded(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		files = append(files, FileInfo{
			Name: name,
			Path: filepath.Join(dir, name),
			Size: info.Size(),
		})
	}
	return files, nil
}

// Paths returns the Path of every file.
func Paths(files []FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func (ex Exclusions) excluded(name string) bool {
	if ex.ReportPrefix != "" && strings.HasPrefix(name, ex.ReportPrefix) {
		return true
	}
	for _, f := range ex.Files {
		if name == filepath.Base(f) {
			return true
		}
	}
	if ex.ProcessedSuffix != "" {
		for _, ext := range processedExts {
			if strings.HasSuffix(name, ex.ProcessedSuffix+ext) {
				return true
			}
		}
	}
	return false
}
