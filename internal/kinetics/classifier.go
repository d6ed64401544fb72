package kinetics

// Candidates returns the templates to try for shape, in order: the template
// preferred for the shape class, then every other enabled template in
// catalog order, then the fallback. Templates whose reversibility or predicate rule the shape
// out are left out. The fallback template is always enabled, so a catalog
// holding it never yields an empty list.
func (c *Catalog) Candidates(shape *Shape, opts Options) []Template {
	enabled := enabledSet(opts.EnabledTemplates)
	allowed := func(name string) bool {
		if name == FallbackTemplate || enabled == nil {
			return true
		}
		_, ok := enabled[name]
		return ok
	}

	var out []Template
	seen := make(map[string]struct{})
	add := func(t Template) {
		if _, dup := seen[t.Name]; dup || !allowed(t.Name) || !t.Matches(shape) {
			return
		}
		seen[t.Name] = struct{}{}
		out = append(out, t)
	}

	if preferred, ok := preferenceFor(shape.Class, opts); ok {
		if t, found := c.Lookup(preferred); found {
			add(t)
		}
	}
	for _, t := range c.Templates() {
		if t.Name != FallbackTemplate {
			add(t)
		}
	}
	if t, found := c.Lookup(FallbackTemplate); found {
		add(t)
	}
	return out
}

func preferenceFor(class ShapeClass, opts Options) (string, bool) {
	if name, ok := opts.Preferences[class]; ok && name != "" {
		return name, true
	}
	name, ok := DefaultPreferences()[class]
	return name, ok
}

func enabledSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}
