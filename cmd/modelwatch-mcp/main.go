// Command modelwatch-mcp exposes modelwatch over the Model Context Protocol
// (stdio transport), so an agent can probe leaderboard pages or inspect the
// accumulated state without shelling out to the CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/modelwatch/config"
	"github.com/use-agent/modelwatch/state"
	"github.com/use-agent/modelwatch/watcher"
)

func main() {
	cfg := config.Load()
	watcher.InitLogger(cfg.Log)

	s := server.NewMCPServer(
		"modelwatch",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	checkPageTool := mcp.NewTool("check_page",
		mcp.WithDescription("Check one web page for mentions of the given AI model names. Matching tolerates dash, space, or no separator between name words. Does not modify the persisted watch state."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to check"),
		),
		mcp.WithArray("models",
			mcp.Required(),
			mcp.Description("Model display names to look for, e.g. [\"Claude 4 Opus\"]"),
		),
		mcp.WithBoolean("dynamic",
			mcp.Description("Force browser rendering instead of trying a plain HTTP fetch first"),
		),
	)
	s.AddTool(checkPageTool, handleCheckPage(cfg))

	watchStatusTool := mcp.NewTool("watch_status",
		mcp.WithDescription("Return the accumulated watch state: which models have been found on which tracked URLs, and when the last check ran."),
		mcp.WithString("state_path",
			mcp.Description("Override the state file location (default: XDG state dir)"),
		),
	)
	s.AddTool(watchStatusTool, handleWatchStatus())

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleCheckPage(cfg *config.Config) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		modelNames, err := request.RequireStringSlice("models")
		if err != nil {
			return mcp.NewToolResultError("models is required and must be an array of strings"), nil
		}
		dynamic := request.GetBool("dynamic", false)

		rep, err := watcher.CheckOnce(ctx, cfg, url, modelNames, dynamic)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if rep.Failed() {
			return mcp.NewToolResultError(fmt.Sprintf("fetch failed for %s: %s", url, rep.FetchErr)), nil
		}

		found := "none"
		if len(rep.Found) > 0 {
			found = strings.Join(rep.Found, ", ")
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s (fetched via %s)\nfound: %s", url, rep.FetchMethod, found)), nil
	}
}

func handleWatchStatus() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := request.GetString("state_path", "")
		if path == "" {
			path = state.DefaultPath()
		}

		st, err := state.Load(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load state: %v", err)), nil
		}

		var b strings.Builder
		b.WriteString(state.Describe(st))
		b.WriteString("\n")
		if st != nil {
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
				fmt.Fprintf(&b, "%s → %s\n", u, found)
			}
		}
		return mcp.NewToolResultText(b.String()), nil
	}
}
