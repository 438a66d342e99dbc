package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SeedResult reports what seeding did for one section.
type SeedResult struct {
	Key     string
	Created int
	Skipped bool
}

// SeedDir fills empty sections from <dir>/<key>.json. Sections without a
// file are left alone; sections that already have rows report Skipped.
func (c *Catalog) SeedDir(dir string) ([]SeedResult, error) {
	var results []SeedResult
	for _, section := range c.Sections() {
		raw, err := os.ReadFile(filepath.Join(dir, section.Key()+".json"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return results, fmt.Errorf("read seed %s: %w", section.Key(), err)
		}

		count, err := section.Count()
		if err != nil {
			return results, err
		}
		if count > 0 {
			results = append(results, SeedResult{Key: section.Key(), Skipped: true})
			continue
		}

		created, err := section.Seed(json.RawMessage(raw))
		if err != nil {
			return results, err
		}
		results = append(results, SeedResult{Key: section.Key(), Created: created})
	}
	return results, nil
}

// RewriteURLs applies every old to new URL replacement across all sections
// and returns the number of row updates made.
func (c *Catalog) RewriteURLs(replacements map[string]string) (int, error) {
	total := 0
	for oldURL, newURL := range replacements {
		for _, section := range c.Sections() {
			n, err := section.RewriteURLs(oldURL, newURL)
			if err != nil {
				return total, err
			}
			total += n
		}
	}
	return total, nil
}
