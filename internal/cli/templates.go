package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kineticcore/internal/kinetics"
)

func newTemplatesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List rate-law templates in catalog order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := e.open(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			preferred := make(map[string][]string)
			for _, class := range kinetics.ShapeClasses {
				name := kinetics.DefaultPreferences()[class]
				preferred[name] = append(preferred[name], string(class))
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "NAME\tTITLE\tDEFAULT FOR")
			for _, t := range rt.svc.Templates() {
				fmt.Fprintf(tw, "%s\t%s\t%v\n", t.Name, t.Title, preferred[t.Name])
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for _, p := range rt.svc.Plugins() {
				fmt.Fprintf(cmd.OutOrStdout(), "plugin %s %s: %v\n", p.Name, p.Version, p.Templates)
			}
			return nil
		},
	}
}
