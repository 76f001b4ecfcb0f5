package modes

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/fang"
	jsoniter "github.com/json-iterator/go"
	"github.com/joho/godotenv"
	"github.com/noborus/ov/oviewer"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iosifache/booksearch/internal/logger"
	"github.com/iosifache/booksearch/internal/tui"
	"github.com/iosifache/booksearch/internal/urlstate"
	"github.com/iosifache/booksearch/internal/version"
)

func StartCLI() {
	l := logger.GetLogger()
	defer l.Sync()

	if err := godotenv.Load(); err != nil {
		l.Debug("Error loading .env file", zap.Error(err))
	}

	var configFile string

	rootCmd := &cobra.Command{
		Use:   "booksearch",
		Short: "OpenLibrary book search",
		Long:  "Search books on OpenLibrary from the terminal, a browser, or an AI assistant. The search state lives in the URL query.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Version: version.GetVersion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: booksearch.toml in . or ~/.config/booksearch)")

	// loadEnv reads the config and points the logger at the sinks the mode
	// can afford.
	loadEnv := func(fallbackLogPaths ...string) (*Env, error) {
		env, err := LoadEnv(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if err := env.ConfigureLogger(fallbackLogPaths...); err != nil {
			return nil, fmt.Errorf("failed to configure logger: %w", err)
		}
		return env, nil
	}

	var (
		searchPage     int
		searchPageSize int
		searchJSON     bool
		searchPager    bool
	)

	searchCmd := &cobra.Command{
		Use:   "search [term...]",
		Short: "Search for books",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv("stderr")
			if err != nil {
				return err
			}
			l := logger.GetLogger()

			searchTerm := strings.Join(args, " ")
			l.Info("Search command called",
				zap.String("searchTerm", searchTerm),
				zap.Int("page", searchPage),
			)

			outcome, err := runSearch(cmd.Context(), env, env.Searcher(), searchTerm, searchPage, searchPageSize)
			if err != nil {
				l.Error("Search command failed",
					zap.String("searchTerm", searchTerm),
					zap.Error(err),
				)
				return fmt.Errorf("failed to search books: %w", err)
			}

			var out string
			if searchJSON {
				data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(outcome, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode outcome: %w", err)
				}
				out = string(data) + "\n"
			} else {
				out = formatOutcome(outcome)
			}

			if searchPager {
				if err := showInPager(strings.NewReader(out)); err != nil {
					return fmt.Errorf("failed to open pager: %w", err)
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), out)
			}

			l.Info("Search command completed successfully",
				zap.String("searchTerm", searchTerm),
				zap.String("location", outcome.Location),
			)
			return nil
		},
	}
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Page to show (1-based)")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 0, "Books per page (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print the outcome as JSON")
	searchCmd.Flags().BoolVar(&searchPager, "pager", false, "Show the output in a pager")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive terminal client",
		Long:  "Start the interactive terminal client. The last search is restored from the session file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv("booksearch.log")
			if err != nil {
				return err
			}
			l := logger.GetLogger()
			defer l.Sync()

			store, err := urlstate.Restore(env.SessionFile)
			if err != nil {
				l.Warn("Failed to restore session, starting fresh",
					zap.String("path", env.SessionFile),
					zap.Error(err),
				)
				store = urlstate.New(nil)
			}
			stop := urlstate.Persist(store, env.SessionFile, func(err error) {
				l.Warn("Failed to save session", zap.String("path", env.SessionFile), zap.Error(err))
			})
			defer stop()

			return tui.Run(cmd.Context(), tui.Options{
				Store:    store,
				Searcher: env.Searcher(),
				Config:   env.SearchConfig(),
				Logger:   l.Named("tui"),
			})
		},
	}

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server (stdio)",
		Long:  "Start the Model Context Protocol (MCP) server using stdio transport for integration with AI assistants.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv("stderr")
			if err != nil {
				return err
			}
			return StartMCPServer(cmd.Context(), env)
		},
	}

	var httpHost string
	var httpPort int
	var httpTransport string

	// Get default port from PORT env var (used by Render, Railway, Heroku, etc.)
	defaultPort := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			defaultPort = port
		}
	}

	httpCmd := &cobra.Command{
		Use:   "http",
		Short: "Start the web client and the MCP server over HTTP",
		Long:  "Serve the browser client, its JSON API and the Model Context Protocol (MCP) endpoint (SSE or Streamable HTTP).",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv("stderr")
			if err != nil {
				return err
			}
			config := HTTPServerConfig{
				Host:          httpHost,
				Port:          httpPort,
				TransportType: httpTransport,
			}
			return StartHTTPServer(cmd.Context(), config, env)
		},
	}

	httpCmd.Flags().StringVar(&httpHost, "host", "0.0.0.0", "Host to bind the HTTP server to")
	httpCmd.Flags().IntVar(&httpPort, "port", defaultPort, "Port to bind the HTTP server to (reads from PORT env var if set)")
	httpCmd.Flags().StringVar(&httpTransport, "transport", "streamable", "MCP transport type: 'sse' or 'streamable' (recommended)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(httpCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.GetVersion()),
	); err != nil {
		os.Exit(1)
	}
}

// showInPager takes over the terminal until the user quits the pager.
func showInPager(r io.Reader) error {
	root, err := oviewer.NewRoot(r)
	if err != nil {
		return err
	}

	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}
