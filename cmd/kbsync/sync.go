package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tbushell/kbsync/internal/kb"
	"github.com/tbushell/kbsync/internal/orchestrator"
	"github.com/tbushell/kbsync/internal/ui"
)

var (
	syncPreview   bool
	syncOrg       string
	syncWriteBack bool
	syncFormat    string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile documents into the store",
	Long: `Scan the knowledge base and reconcile projects, tasks, and meeting
actions into the store:

  1. Parses every project README and sub-project document
  2. Parses every meeting's Actions table
  3. Creates or updates the matching store records
  4. Optionally writes pending store statuses back into the documents

With --preview, reports what would change without writing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.Close()

		org := syncOrg
		if org == "" {
			org = rt.Config.DefaultOrg
		}

		mode := orchestrator.ModeApply
		if syncPreview {
			mode = orchestrator.ModePreview
		}

		o := orchestrator.New(rt.DB, kb.NewScanner(rt.Config.Root, rt.Logger),
			orchestrator.LogNotifier{Logger: rt.Logger}, rt.Logger)

		start := time.Now()
		summary, err := o.SyncAll(context.Background(), orchestrator.Options{
			Mode:      mode,
			Org:       org,
			WriteBack: syncWriteBack,
		})
		if err != nil {
			return err
		}

		if syncFormat == "yaml" {
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(summary)
		}

		printSummary(summary, time.Since(start))
		if errs := summary.Errors(); len(errs) > 0 {
			return fmt.Errorf("%d entities failed to sync", len(errs))
		}
		return nil
	},
}

func printSummary(s *orchestrator.Summary, elapsed time.Duration) {
	verb := "Synced"
	if s.Mode == orchestrator.ModePreview {
		verb = "Would sync"
	}

	fmt.Printf("%s %s in %v\n", ui.RenderPass("✓"), verb, elapsed.Round(time.Millisecond))
	printStage("Projects", s.Projects.Found, s.Projects.Created, s.Projects.Updated,
		s.Projects.Skipped, s.Projects.Errors)
	printStage("Actions", s.Actions.Found, s.Actions.Created, s.Actions.Updated,
		s.Actions.Skipped, s.Actions.Errors)

	if s.WriteBack != nil {
		fmt.Printf("   Write-back: attempted=%d written=%d skipped=%d\n",
			s.WriteBack.Attempted, s.WriteBack.Written, s.WriteBack.Skipped)
		for _, a := range s.WriteBack.Advisories {
			fmt.Printf("   %s %s\n", ui.RenderDim("·"), a)
		}
		for _, e := range s.WriteBack.Errors {
			fmt.Printf("   %s %s\n", ui.RenderErr("✗"), e)
		}
	}

	if len(s.Conflicts) > 0 {
		fmt.Printf("%s %d document(s) in conflict (run 'kbsync conflicts' to inspect):\n",
			ui.RenderWarn("⚠"), len(s.Conflicts))
		for _, c := range s.Conflicts {
			fmt.Printf("   %s\n", c)
		}
	}
}

func printStage(name string, found, created, updated, skipped int, errs []string) {
	fmt.Printf("   %s: found=%d created=%d updated=%d skipped=%d\n",
		name, found, created, updated, skipped)
	for _, e := range errs {
		fmt.Printf("   %s %s\n", ui.RenderErr("✗"), e)
	}
}

func init() {
	syncCmd.Flags().BoolVar(&syncPreview, "preview", false, "report intended changes without writing")
	syncCmd.Flags().StringVar(&syncOrg, "org", "", "restrict to one organization")
	syncCmd.Flags().BoolVar(&syncWriteBack, "write-back", false, "push pending store statuses into the documents")
	syncCmd.Flags().StringVar(&syncFormat, "format", "text", "output format: text or yaml")
	rootCmd.AddCommand(syncCmd)
}
