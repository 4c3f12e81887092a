package cmd

import (
	"fmt"
	"path/filepath"

	"aiexport/pkg/config"
	"aiexport/pkg/events"
	"aiexport/pkg/logging"
	"aiexport/pkg/scan"
	"aiexport/pkg/selection"
	"aiexport/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootLogger is set by Execute and shared by all subcommands.
var rootLogger *zap.Logger

var (
	configPath string
	debugMode  bool
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "aiexport",
	Short: "AIExport flattens selected project files into TXT documents for AI models",
	Long: `AIExport scans a project directory, lets you select a subset of its files,
and exports them as flattened text documents separated by a fixed marker,
ready to be fed to a language model. A live mode re-exports automatically
whenever a watched file changes.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !debugMode {
			return nil
		}
		logger, err := logging.Setup(true, "AIExport", version.Get().Version)
		if err != nil {
			return fmt.Errorf("failed to set up debug logging: %w", err)
		}
		rootLogger = logger
		return nil
	},
}

// Execute wires the logger into the command tree and runs it.
func Execute(logger *zap.Logger) error {
	rootLogger = logger
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default ~/"+config.DefaultFileName+")")
	RootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable verbose development logging")
}

// buildSelection scans rootDir and applies the requested selection: every
// file with --all, or the named root-relative paths otherwise.
func buildSelection(rootDir string, selects []string, all bool, cfg config.Config, bus *events.Bus) (*selection.Tree, selection.Snapshot, scan.Stats, error) {
	scanner := scan.NewScanner(rootLogger, bus, cfg.IgnoreNames...)
	rootNode, stats, err := scanner.Scan(rootDir)
	if err != nil {
		return nil, selection.Snapshot{}, stats, err
	}

	tree := selection.NewTree(rootNode)
	if all {
		tree.Toggle(rootNode.AbsPath, true)
	} else {
		for _, rel := range selects {
			abs := filepath.Join(rootNode.AbsPath, filepath.FromSlash(rel))
			if !tree.Toggle(abs, true) {
				return nil, selection.Snapshot{}, stats, fmt.Errorf("path not found in project tree: %s", rel)
			}
		}
	}

	return tree, selection.Snap(tree), stats, nil
}
