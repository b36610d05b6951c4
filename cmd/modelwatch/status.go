package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/use-agent/modelwatch/state"
)

func newStatusCmd() *cobra.Command {
	var statePath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the accumulated state without scanning",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := statePath
			if path == "" {
				path = cfg.Paths.State
			}
			if path == "" {
				path = state.DefaultPath()
			}

			st, err := state.Load(path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), state.Describe(st))
			if st == nil {
				return nil
			}

			urls := make([]string, 0, len(st.Results))
			for u := range st.Results {
				urls = append(urls, u)
			}
			sort.Strings(urls)
			for _, u := range urls {
				found := "none"
				if names := st.Results[u]; len(names) > 0 {
					found = strings.Join(names, ", ")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n    → found: %s\n", u, found)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "state file path (default: XDG state dir)")
	return cmd
}
