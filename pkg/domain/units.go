package domain

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Unit is one factor of a unit definition: (Multiplier * 10^Scale * Kind)^Exponent.
type Unit struct {
	Kind       string  `json:"kind"`
	Exponent   float64 `json:"exponent"`
	Scale      int     `json:"scale,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
}

// UnitDefinition is a named product of units.
type UnitDefinition struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Units []Unit `json:"units"`
}

// Base unit kinds that may be referenced directly by id.
const (
	UnitDimensionless = "dimensionless"
	UnitMole          = "mole"
	UnitItem          = "item"
	UnitSecond        = "second"
	UnitLitre         = "litre"
	UnitMetre         = "metre"
)

// Built-in model unit references resolved through the model defaults.
const (
	UnitSubstance = "substance"
	UnitTime      = "time"
	UnitVolume    = "volume"
	UnitArea      = "area"
	UnitLength    = "length"
)

var baseUnitKinds = map[string]struct{}{
	"ampere": {}, "avogadro": {}, "becquerel": {}, "candela": {}, "coulomb": {},
	"dimensionless": {}, "farad": {}, "gram": {}, "gray": {}, "henry": {},
	"hertz": {}, "item": {}, "joule": {}, "katal": {}, "kelvin": {},
	"kilogram": {}, "litre": {}, "lumen": {}, "lux": {}, "metre": {},
	"mole": {}, "newton": {}, "ohm": {}, "pascal": {}, "radian": {},
	"second": {}, "siemens": {}, "sievert": {}, "steradian": {}, "tesla": {},
	"volt": {}, "watt": {}, "weber": {},
}

// IsBaseUnit reports whether kind is a predefined base unit.
func IsBaseUnit(kind string) bool {
	_, ok := baseUnitKinds[kind]
	return ok
}

// BaseUnit returns the definition made of a single base unit.
func BaseUnit(kind string) UnitDefinition {
	return UnitDefinition{ID: kind, Units: []Unit{{Kind: kind, Exponent: 1, Multiplier: 1}}}
}

// Dimensionless returns the empty unit.
func Dimensionless() UnitDefinition { return BaseUnit(UnitDimensionless) }

// Clone returns a deep copy of the definition.
func (d UnitDefinition) Clone() UnitDefinition {
	d.Units = append([]Unit(nil), d.Units...)
	return d
}

// Multiply returns the normalised product d * o. The result has no id.
func (d UnitDefinition) Multiply(o UnitDefinition) UnitDefinition {
	units := make([]Unit, 0, len(d.Units)+len(o.Units))
	units = append(units, d.Units...)
	units = append(units, o.Units...)
	return UnitDefinition{Units: units}.Normalize()
}

// Divide returns the normalised quotient d / o. The result has no id.
func (d UnitDefinition) Divide(o UnitDefinition) UnitDefinition {
	return d.Multiply(o.Pow(-1))
}

// Pow raises every factor to e. The result has no id.
func (d UnitDefinition) Pow(e float64) UnitDefinition {
	units := make([]Unit, len(d.Units))
	for i, u := range d.Units {
		u.Exponent *= e
		units[i] = u
	}
	return UnitDefinition{Units: units}.Normalize()
}

// Normalize merges factors of equal kind, scale and multiplier, removes
// cancelled and dimensionless factors, and orders the result by kind.
// An empty result is represented as dimensionless.
func (d UnitDefinition) Normalize() UnitDefinition {
	type key struct {
		kind  string
		scale int
		mult  float64
	}
	exps := make(map[key]float64)
	var order []key
	for _, u := range d.Units {
		if u.Kind == UnitDimensionless || u.Kind == "" {
			continue
		}
		k := key{kind: u.Kind, scale: u.Scale, mult: multiplier(u)}
		if _, seen := exps[k]; !seen {
			order = append(order, k)
		}
		exps[k] += u.Exponent
	}
	units := make([]Unit, 0, len(order))
	for _, k := range order {
		e := exps[k]
		if math.Abs(e) < 1e-12 {
			continue
		}
		units = append(units, Unit{Kind: k.kind, Exponent: e, Scale: k.scale, Multiplier: k.mult})
	}
	if len(units) == 0 {
		units = []Unit{{Kind: UnitDimensionless, Exponent: 1, Multiplier: 1}}
	}
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Kind != units[j].Kind {
			return units[i].Kind < units[j].Kind
		}
		return units[i].Scale < units[j].Scale
	})
	return UnitDefinition{ID: d.ID, Name: d.Name, Units: units}
}

// Identical reports whether both definitions describe the same unit,
// ignoring ids, names and factor order.
func (d UnitDefinition) Identical(o UnitDefinition) bool {
	a, b := d.Normalize().Units, o.Normalize().Units
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Scale != b[i].Scale ||
			math.Abs(a[i].Exponent-b[i].Exponent) > 1e-12 ||
			math.Abs(multiplier(a[i])-multiplier(b[i])) > 1e-12 {
			return false
		}
	}
	return true
}

// IsDimensionless reports whether d carries no dimension.
func (d UnitDefinition) IsDimensionless() bool {
	n := d.Normalize().Units
	return len(n) == 1 && n[0].Kind == UnitDimensionless
}

// SingleBaseKind returns the base kind when d is exactly one plain base unit
// such as "second", so it can be referenced without a definition.
func (d UnitDefinition) SingleBaseKind() (string, bool) {
	n := d.Normalize().Units
	if len(n) != 1 {
		return "", false
	}
	u := n[0]
	if u.Exponent != 1 || u.Scale != 0 || multiplier(u) != 1 || !IsBaseUnit(u.Kind) {
		return "", false
	}
	return u.Kind, true
}

// CanonicalID derives an identifier from the factors, for example
// "per_second" or "litre_per_mole_per_second".
func (d UnitDefinition) CanonicalID() string {
	n := d.Normalize().Units
	if len(n) == 1 && n[0].Kind == UnitDimensionless {
		return UnitDimensionless
	}
	var pos, neg []string
	for _, u := range n {
		name := unitToken(u)
		e := math.Abs(u.Exponent)
		if e != 1 {
			name += "_pow_" + numberToken(e)
		}
		if u.Exponent > 0 {
			pos = append(pos, name)
		} else {
			neg = append(neg, "per_"+name)
		}
	}
	return strings.Join(append(pos, neg...), "_")
}

var scalePrefixes = map[int]string{
	-12: "pico", -9: "nano", -6: "micro", -3: "milli", -2: "centi", -1: "deci",
	3: "kilo", 6: "mega", 9: "giga",
}

func unitToken(u Unit) string {
	name := u.Kind
	if u.Scale != 0 {
		if prefix, ok := scalePrefixes[u.Scale]; ok {
			name = prefix + name
		} else {
			name = "e" + strconv.Itoa(u.Scale) + "_" + name
		}
	}
	if m := multiplier(u); m != 1 {
		name = "x" + numberToken(m) + "_" + name
	}
	return name
}

func numberToken(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	s = strings.ReplaceAll(s, ".", "p")
	return strings.ReplaceAll(s, "-", "m")
}

func multiplier(u Unit) float64 {
	if u.Multiplier == 0 {
		return 1
	}
	return u.Multiplier
}

// ResolveUnit turns a unit reference into a definition. References may name
// a unit definition of the model, a base unit kind, or one of the built-in
// references substance, time, volume, area and length, which fall back to
// the model defaults and then to mole, second, litre, square metre and metre.
func (m *Model) ResolveUnit(ref string) (UnitDefinition, bool) {
	return m.resolveUnit(ref, 0)
}

func (m *Model) resolveUnit(ref string, depth int) (UnitDefinition, bool) {
	if ref == "" || depth > 4 {
		return UnitDefinition{}, false
	}
	if def, ok := m.FindUnitDefinition(ref); ok {
		return def.Normalize(), true
	}
	if IsBaseUnit(ref) {
		return BaseUnit(ref), true
	}
	var override string
	var fallback UnitDefinition
	switch ref {
	case UnitSubstance:
		override, fallback = m.SubstanceUnits, BaseUnit(UnitMole)
	case UnitTime:
		override, fallback = m.TimeUnits, BaseUnit(UnitSecond)
	case UnitVolume:
		override, fallback = m.VolumeUnits, BaseUnit(UnitLitre)
	case UnitArea:
		override, fallback = m.AreaUnits, BaseUnit(UnitMetre).Pow(2)
	case UnitLength:
		override, fallback = m.LengthUnits, BaseUnit(UnitMetre)
	default:
		return UnitDefinition{}, false
	}
	if override != "" && override != ref {
		return m.resolveUnit(override, depth+1)
	}
	return fallback, true
}

// SubstanceUnit resolves the substance unit of a species.
func (m *Model) SubstanceUnit(s Species) (UnitDefinition, bool) {
	ref := s.SubstanceUnits
	if ref == "" {
		ref = UnitSubstance
	}
	return m.ResolveUnit(ref)
}

// SizeUnit resolves the size unit of a compartment, falling back to the
// model default for its spatial dimensions.
func (m *Model) SizeUnit(c Compartment) (UnitDefinition, bool) {
	if c.Units != "" {
		return m.ResolveUnit(c.Units)
	}
	switch c.SpatialDimensions {
	case 3:
		return m.ResolveUnit(UnitVolume)
	case 2:
		return m.ResolveUnit(UnitArea)
	case 1:
		return m.ResolveUnit(UnitLength)
	case 0:
		return Dimensionless(), true
	}
	return UnitDefinition{}, false
}

// UnitRefResolves reports whether a parameter unit reference can be resolved.
// The empty reference is allowed.
func (m *Model) UnitRefResolves(ref string) bool {
	if ref == "" {
		return true
	}
	_, ok := m.ResolveUnit(ref)
	return ok
}
