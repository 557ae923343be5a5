// Package security provides the authorization gate: permission keys,
// resolved capabilities and the checks every mutating command performs.
package security

import (
	"fmt"
	"sort"
	"strings"
)

// PermissionKey identifies one grantable capability as a (module, action) pair.
// It is a comparable value type, so it can be used directly as a map key.
type PermissionKey struct {
	Module string `json:"module" db:"module"`
	Action string `json:"action" db:"action"`
}

// Key builds a PermissionKey normalizing case and surrounding spaces.
func Key(module, action string) PermissionKey {
	return PermissionKey{
		Module: strings.ToLower(strings.TrimSpace(module)),
		Action: strings.ToLower(strings.TrimSpace(action)),
	}
}

// ParseKey parses the "module:action" form.
func ParseKey(s string) (PermissionKey, error) {
	module, action, ok := strings.Cut(s, ":")
	k := Key(module, action)
	if !ok || k.Module == "" || k.Action == "" {
		return PermissionKey{}, fmt.Errorf("invalid permission key %q", s)
	}
	return k, nil
}

// String returns "module:action".
func (k PermissionKey) String() string {
	return k.Module + ":" + k.Action
}

// IsZero reports whether the key is empty.
func (k PermissionKey) IsZero() bool {
	return k.Module == "" && k.Action == ""
}

// Seeded permission keys.
var (
	PermRequestCreate  = PermissionKey{Module: "compras", Action: "solicitar"}
	PermRequestApprove = PermissionKey{Module: "compras", Action: "aprovar"}
	PermRequestDelete  = PermissionKey{Module: "compras", Action: "excluir"}
	PermRequestView    = PermissionKey{Module: "compras", Action: "visualizar"}
	PermStockEdit      = PermissionKey{Module: "estoque", Action: "editar"}
	PermStockAllocate  = PermissionKey{Module: "estoque", Action: "alocar"}
	PermStockView      = PermissionKey{Module: "estoque", Action: "visualizar"}
	PermRolesManage    = PermissionKey{Module: "cargos", Action: "gerenciar"}
)

// PermissionSet is a set of permission keys with O(1) membership.
type PermissionSet map[PermissionKey]struct{}

// NewPermissionSet builds a set, collapsing duplicates.
func NewPermissionSet(keys ...PermissionKey) PermissionSet {
	s := make(PermissionSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s PermissionSet) Has(k PermissionKey) bool {
	_, ok := s[k]
	return ok
}

// Add inserts a key.
func (s PermissionSet) Add(k PermissionKey) {
	s[k] = struct{}{}
}

// Len returns the number of distinct keys.
func (s PermissionSet) Len() int {
	return len(s)
}

// Keys returns the keys sorted by module then action.
func (s PermissionSet) Keys() []PermissionKey {
	out := make([]PermissionKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// PageSet is a set of navigation page keys.
type PageSet map[string]struct{}

// NewPageSet builds a set of pages.
func NewPageSet(pages ...string) PageSet {
	s := make(PageSet, len(pages))
	for _, p := range pages {
		s[p] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s PageSet) Has(page string) bool {
	_, ok := s[page]
	return ok
}

// Sorted returns pages in lexical order.
func (s PageSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
