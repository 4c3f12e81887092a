package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aiexport/pkg/config"
	"aiexport/pkg/events"
	"aiexport/pkg/export"
	"aiexport/pkg/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live mode: re-export the combined document whenever a selected file changes",
	Long: `Watch exports the selection once as a single combined document, then
subscribes to change notifications on every selected file. Bursts of changes
are debounced into one re-export. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDir, _ := cmd.Flags().GetString("root")
		outDir, _ := cmd.Flags().GetString("out")
		selects, _ := cmd.Flags().GetStringArray("select")
		all, _ := cmd.Flags().GetBool("all")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if outDir == "" {
			outDir = cfg.OutputDir
		}
		if outDir == "" {
			return fmt.Errorf("no output directory chosen (use --out or output_dir in the config file)")
		}
		if !all && len(selects) == 0 {
			return fmt.Errorf("nothing selected (use --select or --all)")
		}
		if debounce <= 0 {
			debounce = cfg.Debounce
		}

		bus := events.NewBus()
		eventCh := bus.Subscribe()
		defer bus.Unsubscribe(eventCh)
		go logEvents(eventCh)

		tree, snap, _, err := buildSelection(rootDir, selects, all, cfg, bus)
		if err != nil {
			return err
		}

		runner := export.NewRunner(rootLogger, bus)
		controller := watch.NewController(runner, bus, rootLogger, debounce)
		if err := controller.Start(snap, tree.RootDir(), outDir); err != nil {
			return err
		}

		fmt.Printf("Watching %d files; press Ctrl+C to stop.\n", snap.FileCount)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		controller.Stop()
		return nil
	},
}

// logEvents mirrors bus events into the console log, replacing the log pane
// of a graphical frontend.
func logEvents(ch chan events.Event) {
	for ev := range ch {
		switch ev.Type {
		case events.ChangeDetected:
			rootLogger.Info("Change detected", zap.String("path", ev.Path))
		case events.ExportFinished:
			rootLogger.Info("Re-export finished",
				zap.Int("documents", ev.Documents),
				zap.Int("files", ev.Files))
		case events.ExportFailed:
			rootLogger.Warn("Re-export failed", zap.String("reason", ev.Reason))
		case events.WatchError:
			rootLogger.Warn("Watch error",
				zap.String("path", ev.Path),
				zap.String("reason", ev.Reason))
		}
	}
}

func init() {
	watchCmd.Flags().String("root", ".", "project root directory")
	watchCmd.Flags().String("out", "", "output directory for the combined document")
	watchCmd.Flags().StringArray("select", nil, "root-relative file or directory to include (repeatable)")
	watchCmd.Flags().Bool("all", false, "select every file in the project")
	watchCmd.Flags().Duration("debounce", 0, "quiet window before a re-export fires (default 500ms)")

	RootCmd.AddCommand(watchCmd)
}
