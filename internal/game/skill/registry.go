package skill

import (
	"fmt"
	"sort"
)

// Registry resolves skill names to descriptors. Catalog entries carry only
// names; rooms resolve them here. Read-only after construction.
type Registry struct {
	skills map[string]Skill
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]Skill)}
}

// Register adds skills; a duplicate name is a programming error.
func (r *Registry) Register(skills ...Skill) error {
	for _, s := range skills {
		if _, exists := r.skills[s.Name()]; exists {
			return fmt.Errorf("skill %s registered twice", s.Name())
		}
		r.skills[s.Name()] = s
	}
	return nil
}

// MustRegister is Register for wiring code where a duplicate means a broken
// build.
func (r *Registry) MustRegister(skills ...Skill) {
	if err := r.Register(skills...); err != nil {
		panic(err)
	}
}

// Get resolves a skill by name.
func (r *Registry) Get(name string) (Skill, bool) {
	s, ok := r.skills[name]
	return s, ok
}

// ShadowsOf returns the shadow skills belonging to a visible general skill,
// in name order for determinism.
func (r *Registry) ShadowsOf(generalName string) []Skill {
	var shadows []Skill
	for _, s := range r.skills {
		if s.IsShadow() && s.GeneralName() == generalName {
			shadows = append(shadows, s)
		}
	}
	sort.Slice(shadows, func(i, j int) bool { return shadows[i].Name() < shadows[j].Name() })
	return shadows
}

// Names lists registered skill names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
