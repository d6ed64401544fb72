package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kineticcore/internal/core"
)

func newModelsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage stored models",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := e.open(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tSPECIES\tREACTIONS")
			for _, m := range rt.svc.ListModels() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", m.ID, m.Name, len(m.Species), len(m.Reactions))
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get MODEL",
		Short: "Print a model as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := e.open(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()
			m, err := rt.svc.GetModel(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "put FILE",
		Short: "Create or replace a model from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readModel(args[0])
			if err != nil {
				return err
			}
			rt, err := e.open(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()
			stored, res, err := rt.svc.PutModel(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored model %s\n", stored.ID)
			for _, v := range res.Violations {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s: %s\n", v.Severity, v.Rule, v.Message)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete MODEL",
		Short: "Delete a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := e.open(cmd.Context(), runtimeOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()
			if _, err := rt.svc.DeleteModel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted model %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func readModel(path string) (core.Model, error) {
	// #nosec G304 -- the path is an explicit command argument.
	raw, err := os.ReadFile(path)
	if err != nil {
		return core.Model{}, fmt.Errorf("read model: %w", err)
	}
	var m core.Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return core.Model{}, fmt.Errorf("decode model %s: %w", path, err)
	}
	return m, nil
}
