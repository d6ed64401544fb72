package domain

// Biological qualifiers used in controlled-vocabulary annotations.
const (
	QualifierIs          = "is"
	QualifierHasVersion  = "hasVersion"
	QualifierIsVersionOf = "isVersionOf"
	QualifierHasPart     = "hasPart"
	QualifierIsPartOf    = "isPartOf"
	QualifierIsHomologTo = "isHomologTo"
)

// CVTerm links an entity to external resources (usually identifiers.org URIs)
// through a qualifier.
type CVTerm struct {
	Qualifier string   `json:"qualifier"`
	Resources []string `json:"resources"`
}

// Clone returns a deep copy of the term.
func (t CVTerm) Clone() CVTerm {
	t.Resources = append([]string(nil), t.Resources...)
	return t
}

// Resources collects every resource annotated with the qualifier.
func Resources(terms []CVTerm, qualifier string) []string {
	var out []string
	for _, t := range terms {
		if t.Qualifier == qualifier {
			out = append(out, t.Resources...)
		}
	}
	return out
}

// AnnotatedWithAny reports whether an "is" resource of terms is in the set.
func AnnotatedWithAny(terms []CVTerm, resources map[string]struct{}) bool {
	if len(resources) == 0 {
		return false
	}
	for _, r := range Resources(terms, QualifierIs) {
		if _, ok := resources[r]; ok {
			return true
		}
	}
	return false
}
