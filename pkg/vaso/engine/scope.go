package engine

import (
	"sort"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

// Scope maps variable names to values.
type Scope map[string]value.Value

// ScopeStack is the stack of scopes. Index 0 is the global scope and is
// never popped.
type ScopeStack struct {
	scopes []Scope
}

// NewScopeStack returns a stack holding only the global scope.
func NewScopeStack() *ScopeStack {
	return &ScopeStack{scopes: []Scope{make(Scope)}}
}

// Push opens a new innermost scope.
func (s *ScopeStack) Push() {
	s.scopes = append(s.scopes, make(Scope))
}

// Pop discards the innermost scope. The global scope stays put.
func (s *ScopeStack) Pop() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// Get searches from the innermost scope outward.
func (s *ScopeStack) Get(name string) (value.Value, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set updates the innermost scope already holding name. If no scope holds
// it, the binding is created in the innermost scope.
func (s *ScopeStack) Set(name string, v value.Value) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if _, ok := s.scopes[i][name]; ok {
			s.scopes[i][name] = v
			return
		}
	}
	s.scopes[len(s.scopes)-1][name] = v
}

// Declare binds name in the innermost scope, shadowing any outer binding.
func (s *ScopeStack) Declare(name string, v value.Value) {
	s.scopes[len(s.scopes)-1][name] = v
}

// Global returns the global scope.
func (s *ScopeStack) Global() Scope {
	return s.scopes[0]
}

// Names returns every visible name, sorted, innermost bindings winning.
func (s *ScopeStack) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for i := len(s.scopes) - 1; i >= 0; i-- {
		for name := range s.scopes[i] {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
