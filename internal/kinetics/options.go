package kinetics

// UnitPolicy selects how species quantities enter rate laws.
type UnitPolicy string

const (
	// UnitsConcentration treats species as concentrations unless they carry
	// only substance units.
	UnitsConcentration UnitPolicy = "concentration"
	// UnitsAmount treats every species as an amount of substance.
	UnitsAmount UnitPolicy = "amount"
)

// Options controls a generation batch.
type Options struct {
	// OverwriteExistingLaws regenerates reactions that already carry an
	// intact law. Empty or broken laws are regenerated regardless.
	OverwriteExistingLaws bool
	// Preferences maps a shape class to the template tried first.
	// Missing classes fall back to DefaultPreferences.
	Preferences map[ShapeClass]string
	// EnabledTemplates restricts the catalog to the named templates. Empty
	// enables all. The fallback template is always available.
	EnabledTemplates []string
	// DefaultParameterValue is assigned to created parameters; nil leaves
	// them undefined.
	DefaultParameterValue *float64
	UnitPolicy            UnitPolicy
	// AddParametersGlobally creates every parameter in the model instead of
	// inside the law.
	AddParametersGlobally       bool
	TreatAllReversible          bool
	AllReactionsEnzymeCatalysed bool
	// IgnoredResources lists annotation resources (for example water or
	// protons) whose species are left out of generated formulas.
	IgnoredResources []string
	// UseFunctionDefinitions expresses modulation factors through the shared
	// activation and inhibition function definitions.
	UseFunctionDefinitions bool
	// RemoveOrphanedParameters drops global parameters that only replaced
	// laws referred to.
	RemoveOrphanedParameters bool
	// GenerateForAllReactions targets every reaction of the model.
	GenerateForAllReactions bool
	// Workers bounds parallel per-reaction generation; values below one mean one.
	Workers int
	// Progress is called after each reaction with the number of finished
	// reactions and the batch size. It may be called from several goroutines.
	Progress func(done, total int)
}

// DefaultOptions returns the options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{UnitPolicy: UnitsConcentration, Workers: 1}
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

func (o Options) policy() UnitPolicy {
	if o.UnitPolicy == "" {
		return UnitsConcentration
	}
	return o.UnitPolicy
}

func (o Options) ignored() map[string]struct{} {
	if len(o.IgnoredResources) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(o.IgnoredResources))
	for _, r := range o.IgnoredResources {
		out[r] = struct{}{}
	}
	return out
}

func (o Options) cloneValue() *float64 {
	if o.DefaultParameterValue == nil {
		return nil
	}
	v := *o.DefaultParameterValue
	return &v
}
