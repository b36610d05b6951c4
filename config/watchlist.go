package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrWatchlistNotFound is returned when the watchlist file does not exist.
var ErrWatchlistNotFound = errors.New("watchlist file not found")

// Watchlist is an optional YAML file bundling what to watch, so recurring
// runs don't need a wall of flags:
//
//	models:
//	  - Claude 4 Opus
//	  - Llama 3
//	urls:
//	  - https://arena.example/leaderboard
//	bookmarks: ~/bookmarks.html
//	folder: Leaderboards
type Watchlist struct {
	// Models are the model names to refresh each run.
	Models []string `yaml:"models"`

	// URLs are explicit pages to check, in addition to the bookmarks folder.
	URLs []string `yaml:"urls"`

	// Bookmarks is the bookmarks HTML export to pull URLs from.
	Bookmarks string `yaml:"bookmarks"`

	// Folder overrides the bookmarks folder name.
	Folder string `yaml:"folder"`
}

// LoadWatchlist reads and parses the watchlist at path.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrWatchlistNotFound
		}
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	var wl Watchlist
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}
	return &wl, nil
}
