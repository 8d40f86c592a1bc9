// Package reaction holds mapped reactions and the passes that reconcile
// annotations between their reactant and product sides.
package reaction

import (
	"strings"

	"github.com/turtacn/KeyIP-Depict/internal/domain/molecule"
)

// Direction is the arrow drawn between the two sides of a reaction.
type Direction int

const (
	DirectionForward Direction = iota
	DirectionBidirectional
	DirectionNoGo
	DirectionRetroSynthetic
	DirectionResonance
)

var directionNames = [...]string{"forward", "bidirectional", "no_go", "retro_synthetic", "resonance"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return "unknown"
	}
	return directionNames[d]
}

// ParseArrow decodes the short arrow codes accepted on the wire. Unknown codes
// fall back to a forward arrow.
func ParseArrow(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equ":
		return DirectionBidirectional
	case "ngo":
		return DirectionNoGo
	case "ret":
		return DirectionRetroSynthetic
	case "res":
		return DirectionResonance
	}
	for i, name := range directionNames {
		if strings.EqualFold(s, name) {
			return Direction(i)
		}
	}
	return DirectionForward
}

// Role identifies which collection of a reaction a molecule belongs to.
type Role int

const (
	RoleReactant Role = iota
	RoleProduct
	RoleAgent
)

func (r Role) String() string {
	switch r {
	case RoleReactant:
		return "reactant"
	case RoleProduct:
		return "product"
	case RoleAgent:
		return "agent"
	default:
		return "unknown"
	}
}

// Reaction is three ordered collections of molecules. Atoms on different
// sides relate to each other only through equal non-zero map indices.
type Reaction struct {
	Title     string
	Reactants []*molecule.Molecule
	Products  []*molecule.Molecule
	Agents    []*molecule.Molecule
	Direction Direction
}

// Side returns the molecules playing the given role.
func (r *Reaction) Side(role Role) []*molecule.Molecule {
	switch role {
	case RoleReactant:
		return r.Reactants
	case RoleProduct:
		return r.Products
	case RoleAgent:
		return r.Agents
	}
	return nil
}

// Each calls fn for every molecule in reactant, product, agent order.
func (r *Reaction) Each(fn func(role Role, idx int, m *molecule.Molecule)) {
	for _, role := range []Role{RoleReactant, RoleProduct, RoleAgent} {
		for i, m := range r.Side(role) {
			fn(role, i, m)
		}
	}
}

// AtomCount is the total number of atoms across all components.
func (r *Reaction) AtomCount() int {
	n := 0
	r.Each(func(_ Role, _ int, m *molecule.Molecule) { n += m.AtomCount() })
	return n
}

// Validate checks every component molecule.
func (r *Reaction) Validate() error {
	var err error
	r.Each(func(_ Role, _ int, m *molecule.Molecule) {
		if err == nil {
			err = m.Validate()
		}
	})
	return err
}

//Personal.AI order the ending
