package main

import (
	"fmt"

	"booklibrary/internal/config"
	"booklibrary/internal/library"
	"booklibrary/internal/logx"
	"booklibrary/internal/query"
	"booklibrary/internal/remote"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is built once per invocation by the root command.
type app struct {
	cfg    *config.Config
	lib    *library.Library
	logger *zap.Logger
	format string
}

type rootFlags struct {
	configFile string
	baseURL    string
	output     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	a := &app{}

	cmd := &cobra.Command{
		Use:          "bookctl",
		Short:        "Browse and edit the book library",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default ./booklibrary.{yaml,toml,json} if present)")
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL (overrides client.base_url)")
	pf.StringVarP(&flags.output, "output", "o", "table", "output format: table or json")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log requests at debug level")

	cmd.AddCommand(
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newStatsCmd(a),
		newGenresCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command, flags rootFlags) error {
	switch flags.output {
	case "table", "json":
		a.format = flags.output
	default:
		return fmt.Errorf("unknown output format %q", flags.output)
	}

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	if flags.baseURL != "" {
		cfg.Client.BaseURL = flags.baseURL
	}
	if flags.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg
	a.logger = logx.New(cfg.Log)

	client, err := remote.New(cfg.Client.BaseURL,
		remote.WithTimeout(cfg.Client.Timeout),
		remote.WithUserAgent(cfg.Client.UserAgent),
		remote.WithRateLimit(cfg.Client.RateLimit, max(int(cfg.Client.RateLimit), 1)),
		remote.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	cache := query.New(
		query.WithStaleTime(cfg.Cache.StaleTime),
		query.WithRetries(cfg.Cache.Retries),
		query.WithRetryDelay(cfg.Cache.RetryDelay),
		query.WithRetryPolicy(library.Retryable),
		query.WithLogger(a.logger),
	)

	errOut := cmd.ErrOrStderr()
	a.lib = library.New(client,
		library.WithCache(cache),
		library.WithLogger(a.logger),
		library.WithNotifier(library.NotifierFunc(func(o library.Outcome) {
			fmt.Fprintln(errOut, o.Message())
		})),
	)
	return nil
}
