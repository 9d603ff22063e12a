package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrNoFeeds = errors.New("catalog lists no feeds")

// Feed is one RSS source.
//
//	feeds:
//	  - name: guardian
//	    url: https://www.theguardian.com/world/rss
//	    summary: true
//	    timeout: 10s
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	// Summary keeps the item description; title-only sources leave it off.
	Summary bool `yaml:"summary"`
	// Content keeps the full item body when the feed carries one.
	Content bool          `yaml:"content"`
	Timeout time.Duration `yaml:"timeout"`
}

// Catalog holds the sources and the text tables handed to the engine.
type Catalog struct {
	Feeds []Feed `yaml:"feeds"`
	// Boilerplate lists literal substrings removed before normalization.
	Boilerplate []string `yaml:"boilerplate"`
	// Locations maps a canonical location name to its variants.
	Locations map[string][]string `yaml:"locations"`
}

// LoadCatalog reads the YAML source catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	var cat Catalog
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &cat, nil
}

// Validate requires at least one feed and a name and URL on every feed.
func (c *Catalog) Validate() error {
	if len(c.Feeds) == 0 {
		return ErrNoFeeds
	}
	seen := make(map[string]struct{}, len(c.Feeds))
	for i, f := range c.Feeds {
		if f.Name == "" || f.URL == "" {
			return fmt.Errorf("feed %d: name and url are required", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("feed %q listed twice", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}
