package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbushell/kbsync/internal/config"
	"github.com/tbushell/kbsync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store status",
	Long: `Display the current state of the kbsync store.

Shows:
  - Store file location and size
  - Number of projects, tasks, and synced documents
  - Tasks with store-side changes pending write-back`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if rootFlag != "" {
			cfg.Root = rootFlag
		}

		info, err := os.Stat(cfg.DBPath)
		if os.IsNotExist(err) {
			fmt.Printf("\n%s Store not initialized\n", ui.RenderWarn("⚠"))
			fmt.Printf("   Run 'kbsync sync' to create it\n\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("check store: %w", err)
		}

		rt, err := config.Open(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		ctx := context.Background()
		projects, err := rt.DB.CountProjects(ctx)
		if err != nil {
			return err
		}
		tasks, err := rt.DB.CountTasks(ctx)
		if err != nil {
			return err
		}
		docs, err := rt.DB.ListDocuments(ctx)
		if err != nil {
			return err
		}
		pending, err := rt.DB.ListTasksPendingWriteBack(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s kbsync store\n", ui.RenderAccent("◆"))
		fmt.Printf("   Root:      %s\n", cfg.Root)
		fmt.Printf("   Store:     %s (%.1f KB)\n", cfg.DBPath, float64(info.Size())/1024)
		fmt.Printf("   Projects:  %d\n", projects)
		fmt.Printf("   Tasks:     %d\n", tasks)
		fmt.Printf("   Documents: %d\n", len(docs))
		if len(pending) > 0 {
			fmt.Printf("   %s %d task(s) pending write-back (run 'kbsync sync --write-back')\n",
				ui.RenderWarn("⚠"), len(pending))
		} else {
			fmt.Printf("   %s No pending write-backs\n", ui.RenderPass("✓"))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
