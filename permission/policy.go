package permission

import (
	"errors"
	"fmt"
	"sort"
)

// Wildcard in a role's capability list grants every registered capability.
const Wildcard = "*"

// Policy is the immutable role to capability table.
//
// Policy has no mutable state after NewPolicy returns, so Authorize is safe
// for concurrent use without locking.
type Policy struct {
	registry *Registry
	roles    map[string]Mask
}

// NewPolicy registers every capability named in table, freezes reg and
// builds one mask per role. Role names must be non-empty.
func NewPolicy(reg *Registry, table map[string][]string) (*Policy, error) {
	if reg == nil {
		return nil, errors.New("nil registry")
	}
	if len(table) == 0 {
		return nil, errors.New("empty role table")
	}

	roles := make([]string, 0, len(table))
	for role := range table {
		if role == "" {
			return nil, errors.New("role name empty")
		}
		roles = append(roles, role)
	}
	sort.Strings(roles)

	// Register in sorted order so bit assignment is deterministic.
	for _, role := range roles {
		for _, capability := range table[role] {
			if capability == Wildcard {
				continue
			}
			if _, err := reg.Register(capability); err != nil {
				return nil, fmt.Errorf("role %q: capability %q: %w", role, capability, err)
			}
		}
	}
	reg.Freeze()

	size := reg.Count()
	p := &Policy{
		registry: reg,
		roles:    make(map[string]Mask, len(table)),
	}
	for _, role := range roles {
		mask := newMask(size)
		for _, capability := range table[role] {
			if capability == Wildcard {
				for bit := 0; bit < size; bit++ {
					mask.Set(bit)
				}
				continue
			}
			bit, _ := reg.Bit(capability)
			mask.Set(bit)
		}
		p.roles[role] = mask
	}
	return p, nil
}

// Authorize reports whether role grants capability. Unknown roles and
// unknown capabilities are denied.
func (p *Policy) Authorize(role, capability string) bool {
	if p == nil {
		return false
	}
	mask, ok := p.roles[role]
	if !ok {
		return false
	}
	bit, ok := p.registry.Bit(capability)
	if !ok {
		return false
	}
	return mask.Has(bit)
}

// HasRole reports whether role appears in the table.
func (p *Policy) HasRole(role string) bool {
	if p == nil {
		return false
	}
	_, ok := p.roles[role]
	return ok
}

// Roles returns the role names in sorted order.
func (p *Policy) Roles() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.roles))
	for role := range p.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// Capabilities returns the capabilities granted to role in bit order.
func (p *Policy) Capabilities(role string) []string {
	if p == nil {
		return nil
	}
	mask, ok := p.roles[role]
	if !ok {
		return nil
	}
	var out []string
	for bit := 0; bit < p.registry.Count(); bit++ {
		if mask.Has(bit) {
			name, _ := p.registry.Name(bit)
			out = append(out, name)
		}
	}
	return out
}
