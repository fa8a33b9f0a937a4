package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tably/internal/baserpc"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tably [base] [table]",
	Short: "tably is a terminal grid for your bases",
	Long: `tably is a terminal client for base services: a virtualized, editable
data grid with sorting, filtering and optimistic saves.

Examples:
  tably                       open the last base and table
  tably "Project Tracker"     open a base by name
  tably roadmap Tasks         open a specific table
  tably --demo                explore with in-memory sample data`,
	Args: cobra.MaximumNArgs(2),
	Run:  runTably,
}

var (
	serverFlag string
	tokenFlag  string
	demoFlag   bool
	vimFlag    bool
)

func init() {
	rootCmd.Flags().StringVarP(&serverFlag, "server", "s", "", "Base service URL (overrides config)")
	rootCmd.Flags().StringVarP(&tokenFlag, "token", "t", "", "API token (overrides config)")
	rootCmd.Flags().BoolVar(&demoFlag, "demo", false, "Use an in-memory service seeded with sample data")
	rootCmd.Flags().BoolVar(&vimFlag, "vim", false, "Enable vim navigation keys")
}

func runTably(cmd *cobra.Command, args []string) {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if serverFlag != "" {
		config.Server = serverFlag
	}
	if tokenFlag != "" {
		config.Token = tokenFlag
	}
	if vimFlag {
		config.VimMode = true
	}

	dsn := config.SentryDSN
	if env := os.Getenv("TABLY_SENTRY_DSN"); env != "" {
		dsn = env
	}
	if dsn != "" {
		if err := InitSentry(dsn); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		} else {
			defer FlushAndShutdown()
		}
	}
	InitBreadcrumbs(100)

	var client baserpc.Client
	if demoFlag {
		mc := baserpc.NewMemoryClient()
		mc.SeedDemo()
		client = mc
	} else {
		if config.Server == "" {
			fmt.Fprintln(os.Stderr, "Error: no server configured (set server in config.yaml or pass --server)")
			os.Exit(1)
		}
		client = baserpc.NewHTTPClient(config.Server, config.Token)
	}
	client = withBreadcrumbs(client)

	state, err := OpenStateStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening state store: %v\n", err)
		os.Exit(1)
	}
	defer state.Close()

	var baseArg, tableArg string
	if len(args) >= 1 {
		baseArg = args[0]
	}
	if len(args) >= 2 {
		tableArg = args[1]
	}

	if err := runEditor(config, state, client, baseArg, tableArg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
