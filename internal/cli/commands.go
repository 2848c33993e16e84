package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mkarlsen/stratagem/config"
)

const version = "1.0.0"

// NewRootCmd creates the root command. Running it without a subcommand
// starts the interactive assistant; --query answers once and exits.
func NewRootCmd() *cobra.Command {
	var queryText string

	rootCmd := &cobra.Command{
		Use:   "stratagem",
		Short: "AI investment research assistant",
		Long: `Stratagem answers natural-language questions about stocks. It fetches
market data from the configured providers, computes technical indicators
and trading signals, backtests strategies and writes chart data and
markdown reports, all from one prompt.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if queryText != "" {
				return app.RunSingleQuery(cmd.Context(), queryText)
			}
			return app.RunInteractive(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")
	rootCmd.Flags().StringVarP(&queryText, "query", "q", "", "run a single query and exit")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadConfig builds the runtime configuration from the environment and,
// when --config is set, the YAML file layered under it. The persistent
// --debug flag wins over both.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	if path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := loaded.Validate(); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Stratagem v%s\n", version)
			fmt.Println("AI investment research assistant")
		},
	}
}

// newToolsCmd creates the tools command
func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the registered analysis tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			app.printTools()
			return nil
		},
	}
}

// newWatchCmd creates the watch command
func newWatchCmd() *cobra.Command {
	var (
		schedule  string
		skipFirst bool
	)

	cmd := &cobra.Command{
		Use:   "watch [SYMBOL...]",
		Short: "Re-run stock analysis on a schedule",
		Long: `Watch runs the full stock analysis pipeline for the given symbols on a
cron schedule until interrupted. Symbols may be passed as arguments,
listed under watch_symbols in the config file or entered interactively.
With --config, edits to the file's watch_symbols take effect without a
restart.
Example: stratagem watch AAPL MSFT --every "@every 30m"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			var reload *config.Manager
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				if reload, err = config.NewManager(path); err != nil {
					return err
				}
			}

			symbols := normalizeSymbols(args)
			if len(symbols) == 0 {
				symbols = normalizeSymbols(cfg.WatchSymbols)
			}
			if len(symbols) == 0 {
				if symbols, err = promptForSymbols(); err != nil {
					return err
				}
			}

			return app.Watch(cmd.Context(), WatchOptions{
				Symbols:  symbols,
				Schedule: schedule,
				RunNow:   !skipFirst,
				Reload:   reload,
			})
		},
	}

	cmd.Flags().StringVar(&schedule, "every", "@hourly", "cron expression or @every duration between refreshes")
	cmd.Flags().BoolVar(&skipFirst, "skip-first", false, "wait for the first tick instead of refreshing immediately")

	return cmd
}

// newConfigCmd creates the config command group
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or scaffold the configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(redactSecrets(cfg, "(set)"))
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a starter config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "stratagem.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file already exists: %s", path)
			}

			cfg := redactSecrets(config.DefaultConfig(), "")
			if err := config.SaveFile(path, cfg); err != nil {
				return err
			}
			fmt.Printf("📝 Wrote starter config to %s\n", path)
			return nil
		},
	}
}

// redactSecrets returns a copy with every non-empty API credential
// replaced, so credentials stay in the environment rather than in
// printed output or generated files.
func redactSecrets(cfg *config.Config, replacement string) *config.Config {
	out := *cfg
	for _, field := range []*string{
		&out.AlphaVantageKey, &out.FinnhubKey,
		&out.AlpacaKey, &out.AlpacaSecret,
		&out.LongportAppKey, &out.LongportAppSecret, &out.LongportAccessToken,
	} {
		if *field != "" {
			*field = replacement
		}
	}
	return &out
}

// normalizeSymbols flattens, uppercases and dedupes symbol arguments.
// Comma-separated lists are accepted alongside space-separated ones.
func normalizeSymbols(args []string) []string {
	seen := make(map[string]bool, len(args))
	var out []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			symbol := strings.TrimSpace(strings.ToUpper(part))
			if symbol == "" || seen[symbol] {
				continue
			}
			seen[symbol] = true
			out = append(out, symbol)
		}
	}
	return out
}
