package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbushell/kbsync/internal/kb"
	"github.com/tbushell/kbsync/internal/orchestrator"
	"github.com/tbushell/kbsync/internal/ui"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List documents where both the file and the store changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		o := orchestrator.New(rt.DB, kb.NewScanner(rt.Config.Root, rt.Logger), nil, rt.Logger)
		conflicts, err := o.ListConflicts(context.Background())
		if err != nil {
			return err
		}

		if len(conflicts) == 0 {
			fmt.Printf("%s No conflicts\n", ui.RenderPass("✓"))
			return nil
		}

		fmt.Printf("%s %d document(s) diverged since last sync:\n", ui.RenderWarn("⚠"), len(conflicts))
		for _, c := range conflicts {
			fmt.Printf("   %s %s\n", ui.RenderAccent(c.Path),
				ui.RenderDim(fmt.Sprintf("(last synced %s)", c.LastSyncedAt.Format("2006-01-02 15:04"))))
		}
		fmt.Printf("\nResolve with: kbsync conflicts resolve <path> --winner file|database\n")
		return nil
	},
}

var resolveWinner string

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve a diverged document in favor of one side",
	Long: `Resolve a conflict for the given document (path relative to the
knowledge-base root).

  --winner file      re-sync the document, discarding store-side edits
  --winner database  write store statuses into the document`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		o := orchestrator.New(rt.DB, kb.NewScanner(rt.Config.Root, rt.Logger), nil, rt.Logger)
		res, err := o.ResolveConflict(context.Background(), args[0], orchestrator.Winner(resolveWinner))
		if err != nil {
			return err
		}

		fmt.Printf("%s Resolved %s (winner: %s)\n", ui.RenderPass("✓"), args[0], resolveWinner)
		fmt.Printf("   found=%d created=%d updated=%d skipped=%d\n",
			res.Found, res.Created, res.Updated, res.Skipped)
		for _, e := range res.Errors {
			fmt.Printf("   %s %s\n", ui.RenderErr("✗"), e)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveWinner, "winner", "", "which side wins: file or database")
	resolveCmd.MarkFlagRequired("winner")
	conflictsCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(conflictsCmd)
}
