package cmd

import (
	"fmt"

	"aiexport/pkg/config"
	"aiexport/pkg/events"
	"aiexport/pkg/export"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export selected files into flattened TXT documents",
	Long: `Export scans the project root, selects the requested files and writes
them as flattened text documents: one per directory group in grouped mode,
or a single combined document in single mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDir, _ := cmd.Flags().GetString("root")
		outDir, _ := cmd.Flags().GetString("out")
		modeName, _ := cmd.Flags().GetString("mode")
		selects, _ := cmd.Flags().GetStringArray("select")
		all, _ := cmd.Flags().GetBool("all")
		tokens, _ := cmd.Flags().GetBool("tokens")
		workers, _ := cmd.Flags().GetInt("workers")

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

		var mode export.Mode
		switch modeName {
		case "grouped":
			mode = export.Grouped
		case "single":
			mode = export.Single
		default:
			return fmt.Errorf("unknown mode %q (expected grouped or single)", modeName)
		}

		bus := events.NewBus()
		tree, snap, _, err := buildSelection(rootDir, selects, all, cfg, bus)
		if err != nil {
			return err
		}
		if snap.FileCount == 0 {
			return fmt.Errorf("selection is empty, nothing to export")
		}

		runner := export.NewRunner(rootLogger, bus)
		runner.MaxWorkers = workers
		result, err := runner.Run(export.Job{
			Mode:      mode,
			Files:     snap.Files,
			OutputDir: outDir,
			RootName:  tree.Root().Name,
		})
		if err != nil {
			return err
		}

		for _, fe := range result.Errors {
			rootLogger.Warn("Export item failed",
				zap.String("path", fe.Path),
				zap.String("message", fe.Message))
		}
		fmt.Printf("Exported %d files into %d documents under %s\n",
			result.Files, result.Documents, outDir)

		if tokens {
			report, err := export.TokenReport(result.Written, cfg.TokenModel)
			if err != nil {
				rootLogger.Warn("Token report failed", zap.Error(err))
			} else {
				fmt.Print(report)
			}
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("root", ".", "project root directory")
	exportCmd.Flags().String("out", "", "output directory for TXT documents")
	exportCmd.Flags().String("mode", "grouped", "export mode: grouped or single")
	exportCmd.Flags().StringArray("select", nil, "root-relative file or directory to include (repeatable)")
	exportCmd.Flags().Bool("all", false, "select every file in the project")
	exportCmd.Flags().Bool("tokens", false, "print a token count report for the produced documents")
	exportCmd.Flags().Int("workers", 0, "number of concurrent file readers (0 = default)")

	RootCmd.AddCommand(exportCmd)
}
