package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ibeckermayer/promptreel/internal/config"
)

// ReportDir returns the directory run reports are exported to.
// On macOS this is ~/Library/Caches/promptreel/reports/
func ReportDir() (string, error) {
	cacheDir, err := config.CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "reports"), nil
}

// Report collects the summary, prompt events and renames of a run.
func (s *Store) Report(runID string) (*Report, error) {
	summary, err := s.GetRun(runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	events, err := s.RunEvents(runID)
	if err != nil {
		return nil, err
	}
	renames, err := s.RunRenames(runID)
	if err != nil {
		return nil, err
	}
	return &Report{RunSummary: summary, Events: events, Renames: renames}, nil
}

// reportFilename sorts by start time, then by run.
func reportFilename(r *Report) string {
	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return r.StartedAt.UTC().Format("2006-01-02T15-04-05") + "_" + id + ".json"
}

// WriteReport saves r as indented JSON in dir and returns the file path.
func WriteReport(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir: %w", err)
	}

	jsonData, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(dir, reportFilename(r))
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// LoadReport reads a report written by WriteReport.
func LoadReport(path string) (*Report, error) {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r Report
	if err := json.Unmarshal(jsonData, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}

// LatestReport returns the path of the newest report in dir.
func LatestReport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no reports in %s", dir)
		}
		return "", err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no reports in %s", dir)
	}

	sort.Strings(files)
	return filepath.Join(dir, files[len(files)-1]), nil
}
