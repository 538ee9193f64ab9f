// Package renamer renumbers downloaded videos in the order they were saved.
package renamer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Result describes a single rename. From and To are base names within the directory.
type Result struct {
	From string
	To   string
}

// Renamed reports whether the file actually moved.
func (r Result) Renamed() bool {
	return r.From != r.To
}

// Renamer renames files matching an extension to prefix{n}ext.
type Renamer struct {
	prefix string
	ext    string
	now    func() time.Time
}

// New creates a renamer producing names like "video_1.mp4" for prefix "video_" and ext ".mp4".
func New(prefix, ext string) *Renamer {
	return &Renamer{prefix: prefix, ext: ext, now: time.Now}
}

// WithClock replaces the clock used for collision suffixes.
func (r *Renamer) WithClock(now func() time.Time) *Renamer {
	r.now = now
	return r
}

type candidate struct {
	name    string
	modTime time.Time
}

// Eligible lists files in dir with the target extension, oldest first.
// Files with identical modification times are ordered by name.
func (r *Renamer) Eligible(dir string) ([]string, error) {
	cands, err := r.scan(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.name
	}
	return names, nil
}

func (r *Renamer) scan(dir string) ([]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output dir: %w", err)
	}

	var cands []candidate
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), r.ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		cands = append(cands, candidate{name: entry.Name(), modTime: info.ModTime()})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if !cands[i].modTime.Equal(cands[j].modTime) {
			return cands[i].modTime.Before(cands[j].modTime)
		}
		return cands[i].name < cands[j].name
	})
	return cands, nil
}

// Rename numbers eligible files in dir from 1 by ascending modification time.
// When the target name is held by another file, the Unix time is appended
// (prefix{n}_{unix}ext), plus a counter if that is taken too. A file already
// carrying its target name stays where it is. On error, the results so far are
// returned alongside it.
func (r *Renamer) Rename(dir string) ([]Result, error) {
	cands, err := r.scan(dir)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(cands))
	for i, c := range cands {
		n := i + 1
		target := r.Target(n)

		if target == c.name {
			results = append(results, Result{From: c.name, To: c.name})
			continue
		}

		if exists(filepath.Join(dir, target)) {
			target = r.collisionName(dir, n)
		}

		if err := os.Rename(filepath.Join(dir, c.name), filepath.Join(dir, target)); err != nil {
			return results, fmt.Errorf("failed to rename %s: %w", c.name, err)
		}
		log.Printf("[renamer] %s -> %s", c.name, target)
		results = append(results, Result{From: c.name, To: target})
	}

	return results, nil
}

// Target is the name the n-th oldest file gets when it is free.
func (r *Renamer) Target(n int) string {
	return fmt.Sprintf("%s%d%s", r.prefix, n, r.ext)
}

// collisionName finds a free timestamp-suffixed name for index n.
func (r *Renamer) collisionName(dir string, n int) string {
	ts := r.now().Unix()
	name := fmt.Sprintf("%s%d_%d%s", r.prefix, n, ts, r.ext)
	for k := 2; exists(filepath.Join(dir, name)); k++ {
		name = fmt.Sprintf("%s%d_%d_%d%s", r.prefix, n, ts, k, r.ext)
	}
	return name
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
