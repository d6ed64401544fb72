package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kineticcore/internal/core"
	"kineticcore/internal/kinetics"
)

type generateFlags struct {
	overwrite     bool
	all           bool
	commit        bool
	asJSON        bool
	workers       int
	globalParams  bool
	reversible    bool
	enzymes       bool
	functions     bool
	removeOrphans bool
	amounts       bool
	ignored       []string
	enabled       []string
	preferences   map[string]string
	defaultValue  float64
}

func (f *generateFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.overwrite, "overwrite", false, "regenerate reactions that already carry a law")
	fl.BoolVar(&f.all, "all", false, "target every reaction of the model")
	fl.BoolVar(&f.commit, "commit", false, "merge the generated laws into the stored model")
	fl.BoolVar(&f.asJSON, "json", false, "print the report as JSON")
	fl.IntVar(&f.workers, "workers", 0, "parallel reactions (defaults to KINETICCORE_WORKERS)")
	fl.BoolVar(&f.globalParams, "global-parameters", false, "create parameters in the model instead of inside laws")
	fl.BoolVar(&f.reversible, "all-reversible", false, "treat every reaction as reversible")
	fl.BoolVar(&f.enzymes, "all-enzyme-catalysed", false, "treat every reaction as enzyme catalysed")
	fl.BoolVar(&f.functions, "function-definitions", false, "express modulation through shared function definitions")
	fl.BoolVar(&f.removeOrphans, "remove-orphaned-parameters", false, "drop global parameters only replaced laws used")
	fl.BoolVar(&f.amounts, "amounts", false, "treat species as amounts instead of concentrations")
	fl.StringSliceVar(&f.ignored, "ignore", nil, "annotation resources whose species are left out of formulas")
	fl.StringSliceVar(&f.enabled, "template", nil, "restrict generation to these templates")
	fl.StringToStringVar(&f.preferences, "prefer", nil, "preferred template per reaction class, e.g. uni-uni=hill-equation")
	fl.Float64Var(&f.defaultValue, "default-value", 0, "initial value of created parameters")
}

func (f *generateFlags) options(cmd *cobra.Command, defaultWorkers int) (kinetics.Options, error) {
	opts := kinetics.DefaultOptions()
	opts.OverwriteExistingLaws = f.overwrite
	opts.GenerateForAllReactions = f.all
	opts.AddParametersGlobally = f.globalParams
	opts.TreatAllReversible = f.reversible
	opts.AllReactionsEnzymeCatalysed = f.enzymes
	opts.UseFunctionDefinitions = f.functions
	opts.RemoveOrphanedParameters = f.removeOrphans
	opts.IgnoredResources = f.ignored
	opts.EnabledTemplates = f.enabled
	opts.Workers = defaultWorkers
	if f.workers > 0 {
		opts.Workers = f.workers
	}
	if f.amounts {
		opts.UnitPolicy = kinetics.UnitsAmount
	}
	if cmd.Flags().Changed("default-value") {
		v := f.defaultValue
		opts.DefaultParameterValue = &v
	}
	if len(f.preferences) > 0 {
		opts.Preferences = make(map[kinetics.ShapeClass]string, len(f.preferences))
		for class, template := range f.preferences {
			if !knownClass(class) {
				return kinetics.Options{}, fmt.Errorf("unknown reaction class %q", class)
			}
			opts.Preferences[kinetics.ShapeClass(class)] = template
		}
	}
	return opts, nil
}

func knownClass(name string) bool {
	for _, c := range kinetics.ShapeClasses {
		if string(c) == name {
			return true
		}
	}
	return false
}

func newGenerateCmd(e *env) *cobra.Command {
	flags := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate MODEL [REACTION...]",
		Short: "Generate kinetic laws for reactions of a model",
		Long: `Generate derives laws for the listed reactions, or for every reaction
without an intact law when none are listed. Without --commit the report is
printed and discarded.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, e.cfg.Workers)
			if err != nil {
				return err
			}
			rt, err := e.open(cmd.Context(), runtimeOptions{archive: flags.commit})
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()
			report, err := rt.svc.Generate(cmd.Context(), args[0], args[1:], opts)
			if err != nil {
				return err
			}
			return finishReport(cmd, rt.svc, report, flags.commit, flags.asJSON)
		},
	}
	flags.bind(cmd)
	return cmd
}

// finishReport prints a report and commits or discards it.
func finishReport(cmd *cobra.Command, svc *core.Service, report core.GenerationReport, commit, asJSON bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		if err := printJSON(out, report); err != nil {
			return err
		}
	} else if err := printReport(out, report); err != nil {
		return err
	}
	if !commit {
		if err := svc.Discard(cmd.Context(), report.ID); err != nil {
			return err
		}
		if !asJSON {
			fmt.Fprintln(out, "dry run: report discarded, rerun with --commit to apply")
		}
		return nil
	}
	summary, res, err := svc.Commit(cmd.Context(), report.ID)
	if err != nil {
		return err
	}
	if !asJSON {
		printSummary(out, summary, res)
	}
	return nil
}
