// kbsync keeps a markdown knowledge base and its SQLite task store in
// agreement: it extracts projects, tasks, and meeting actions from the
// documents, reconciles them into the store, and pushes store-side
// status changes back into the documents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbushell/kbsync/internal/config"
)

var version = "0.3.0"

var (
	configFile string
	rootFlag   string
)

var rootCmd = &cobra.Command{
	Use:     "kbsync",
	Short:   "Sync a markdown knowledge base with its task store",
	Version: version,
	Long: `kbsync scans a knowledge base laid out as <org>/projects/ and
<org>/meetings/, extracts projects, tasks, and meeting actions from the
markdown, and reconciles them into a local SQLite store. Status changes
made in the store flow back into the documents on request.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// openRuntime loads config and opens the store for one command run.
func openRuntime() (*config.Runtime, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if rootFlag != "" {
		cfg.Root = rootFlag
	}
	return config.Open(cfg)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ~/.config/kbsync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "knowledge-base root (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
