package main

import (
	"github.com/spf13/cobra"

	"github.com/use-agent/modelwatch/config"
	"github.com/use-agent/modelwatch/models"
	"github.com/use-agent/modelwatch/watcher"
)

type checkFlags struct {
	models      []string
	urls        []string
	bookmarks   string
	folder      string
	watchlist   string
	dynamic     bool
	statePath   string
	reportPath  string
	snapshotDir string
	historyPath string
}

func newCheckCmd() *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Scan the watched URLs and report changes",
		Long: `Scan every watched URL for the requested model names, merge the findings
into the accumulated state, and print what changed since the last run.

Models not listed this run keep their previously recorded entries; only the
requested models are refreshed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolveOptions(cfg, flags)
			if err != nil {
				return err
			}
			return watcher.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&flags.models, "models", "m", nil, "model name to check (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.urls, "url", "u", nil, "explicit URL to check (repeatable)")
	cmd.Flags().StringVarP(&flags.bookmarks, "bookmarks", "b", "", "bookmarks HTML export to pull URLs from")
	cmd.Flags().StringVar(&flags.folder, "folder", "", "bookmarks folder name (default \"Leaderboards\")")
	cmd.Flags().StringVarP(&flags.watchlist, "watchlist", "w", "", "YAML watchlist file (models, urls, bookmarks)")
	cmd.Flags().BoolVarP(&flags.dynamic, "dynamic", "d", false, "force browser rendering for every URL")
	cmd.Flags().StringVar(&flags.statePath, "state", "", "state file path (default: XDG state dir)")
	cmd.Flags().StringVar(&flags.reportPath, "report", "", "also write a Markdown change report to this file")
	cmd.Flags().StringVar(&flags.snapshotDir, "snapshot-dir", "", "archive pages with newly found models to this directory")
	cmd.Flags().StringVar(&flags.historyPath, "history", "", "append the run to this SQLite run log")

	return cmd
}

// resolveOptions layers flag values over the watchlist file and the
// environment-derived config, then resolves the final URL list.
func resolveOptions(cfg *config.Config, flags checkFlags) (watcher.Options, error) {
	modelNames := flags.models
	urls := flags.urls
	bookmarksPath := flags.bookmarks
	folder := flags.folder

	if flags.watchlist != "" {
		wl, err := config.LoadWatchlist(flags.watchlist)
		if err != nil {
			return watcher.Options{}, models.NewWatchError(models.ErrCodeInvalidInput, "load watchlist", err)
		}
		if len(modelNames) == 0 {
			modelNames = wl.Models
		}
		urls = append(urls, wl.URLs...)
		if bookmarksPath == "" {
			bookmarksPath = wl.Bookmarks
		}
		if folder == "" {
			folder = wl.Folder
		}
	}

	if len(modelNames) == 0 {
		modelNames = cfg.Models
	}
	if bookmarksPath == "" {
		bookmarksPath = cfg.Paths.Bookmarks
	}
	if folder == "" {
		folder = cfg.Paths.Folder
	}

	resolved, err := watcher.ResolveURLs(bookmarksPath, folder, urls)
	if err != nil {
		return watcher.Options{}, err
	}

	statePath := flags.statePath
	if statePath == "" {
		statePath = cfg.Paths.State
	}
	snapshotDir := flags.snapshotDir
	if snapshotDir == "" {
		snapshotDir = cfg.Paths.SnapshotDir
	}
	historyPath := flags.historyPath
	if historyPath == "" {
		historyPath = cfg.Paths.History
	}

	return watcher.Options{
		Models:       modelNames,
		URLs:         resolved,
		ForceDynamic: flags.dynamic,
		StatePath:    statePath,
		ReportPath:   flags.reportPath,
		SnapshotDir:  snapshotDir,
		HistoryPath:  historyPath,
	}, nil
}
