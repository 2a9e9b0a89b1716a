package proxy

import "sort"

// TargetRegistry maps short target names to upstream base URLs.
// It is immutable after construction and safe for concurrent use.
type TargetRegistry struct {
	targets map[string]string
}

// NewTargetRegistry copies targets into a new registry.
func NewTargetRegistry(targets map[string]string) *TargetRegistry {
	r := &TargetRegistry{targets: make(map[string]string, len(targets))}
	for name, base := range targets {
		r.targets[name] = base
	}
	return r
}

// Resolve returns the base URL for name or a *NotFoundError.
func (r *TargetRegistry) Resolve(name string) (string, error) {
	base, ok := r.targets[name]
	if !ok {
		return "", &NotFoundError{Target: name}
	}
	return base, nil
}

// Names returns the registered target names in sorted order.
func (r *TargetRegistry) Names() []string {
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered targets.
func (r *TargetRegistry) Len() int {
	return len(r.targets)
}
