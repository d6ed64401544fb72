package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kineticcore/internal/core"
)

func newImportCmd(e *env) *cobra.Command {
	var (
		fromFile string
		commit   bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "import TARGET [SOURCE]",
		Short: "Copy kinetic laws from a source model onto matching reactions",
		Long: `Import pairs the reactions of TARGET with reactions of the source model by
annotation identity and copies a law only when every entity it references
has a match. The source is a stored model id or a JSON file (--from-file).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 2) == (fromFile != "") {
				return fmt.Errorf("give either a SOURCE model id or --from-file")
			}
			rt, err := e.open(cmd.Context(), runtimeOptions{archive: commit})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			var source core.Model
			if fromFile != "" {
				source, err = readModel(fromFile)
			} else {
				source, err = rt.svc.GetModel(args[1])
			}
			if err != nil {
				return err
			}
			report, err := rt.svc.ImportLaws(cmd.Context(), args[0], source)
			if err != nil {
				return err
			}
			return finishReport(cmd, rt.svc, report, commit, asJSON)
		},
	}
	cmd.Flags().StringVar(&fromFile, "from-file", "", "read the source model from a JSON file")
	cmd.Flags().BoolVar(&commit, "commit", false, "merge the imported laws into the stored model")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}
