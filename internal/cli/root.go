// Package cli implements the kineticcore command tree.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"kineticcore/internal/config"
)

// env is shared by every command of one invocation.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the command tree. Logs go to stderr as JSON.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "kineticcore",
		Short: "Generate and import kinetic rate laws for reaction network models",
		Long: `kineticcore derives kinetic laws for the reactions of a stored model,
reviews them as a generation report and merges accepted laws back.

Typical session:
  kineticcore models put model.json
  kineticcore generate m1 --commit
  kineticcore reports list m1`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(newModelsCmd(e))
	root.AddCommand(newGenerateCmd(e))
	root.AddCommand(newImportCmd(e))
	root.AddCommand(newTemplatesCmd(e))
	root.AddCommand(newReportsCmd(e))
	root.AddCommand(newQueueCmd(e))
	root.AddCommand(newWorkerCmd(e))
	return root
}

// Execute runs the root command against the process streams.
func Execute() error {
	return NewRootCommand(os.Stdout, os.Stderr).Execute()
}
