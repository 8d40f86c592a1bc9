// Package molecule holds the molecular graph used by the depiction pipeline
// and the in-place annotation passes that run over it: valence perception,
// hydrogen display and hydrate contraction.
//
// A Molecule is an arena.  Atoms and bonds live in two dense slices and are
// addressed by integer index; stereo elements and s-groups refer back into the
// arena by index only.  Pointers returned by Atom and Bond are views into the
// arena and must not be retained across AddAtom/AddBond calls.
package molecule

import (
	"fmt"
	"strings"

	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Bond order
// ─────────────────────────────────────────────────────────────────────────────

// Order is the multiplicity of a bond.  OrderUnset contributes nothing to
// valence arithmetic.
type Order int

const (
	OrderUnset Order = iota
	OrderSingle
	OrderDouble
	OrderTriple
	OrderQuadruple
)

// Numeric returns the bond order as an integer, 0 for OrderUnset.
func (o Order) Numeric() int {
	switch o {
	case OrderSingle:
		return 1
	case OrderDouble:
		return 2
	case OrderTriple:
		return 3
	case OrderQuadruple:
		return 4
	default:
		return 0
	}
}

func (o Order) String() string {
	switch o {
	case OrderSingle:
		return "single"
	case OrderDouble:
		return "double"
	case OrderTriple:
		return "triple"
	case OrderQuadruple:
		return "quadruple"
	default:
		return "unset"
	}
}

// ParseOrder accepts the names returned by String as well as the digits 1-4.
func ParseOrder(s string) (Order, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unset", "0":
		return OrderUnset, true
	case "single", "1":
		return OrderSingle, true
	case "double", "2":
		return OrderDouble, true
	case "triple", "3":
		return OrderTriple, true
	case "quadruple", "4":
		return OrderQuadruple, true
	default:
		return OrderUnset, false
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond display
// ─────────────────────────────────────────────────────────────────────────────

// Display is the rendering hint attached to a bond.  The arrow variants mark
// a dative bond drawn from donor to acceptor.
type Display int

const (
	DisplaySolid Display = iota
	DisplayWedgeBegin
	DisplayWedgeEnd
	DisplayHashBegin
	DisplayHashEnd
	DisplayBold
	DisplayHash
	DisplayArrowBegin
	DisplayArrowEnd
)

var displayNames = [...]string{
	DisplaySolid:      "solid",
	DisplayWedgeBegin: "wedge_begin",
	DisplayWedgeEnd:   "wedge_end",
	DisplayHashBegin:  "hash_begin",
	DisplayHashEnd:    "hash_end",
	DisplayBold:       "bold",
	DisplayHash:       "hash",
	DisplayArrowBegin: "arrow_begin",
	DisplayArrowEnd:   "arrow_end",
}

func (d Display) String() string {
	if d < 0 || int(d) >= len(displayNames) {
		return "solid"
	}
	return displayNames[d]
}

// IsArrow reports whether the display marks a dative bond.
func (d Display) IsArrow() bool {
	return d == DisplayArrowBegin || d == DisplayArrowEnd
}

// ParseDisplay converts a display name back to its value.  The empty string
// maps to DisplaySolid.
func ParseDisplay(s string) (Display, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DisplaySolid, true
	}
	for i, name := range displayNames {
		if name == s {
			return Display(i), true
		}
	}
	return DisplaySolid, false
}

// ─────────────────────────────────────────────────────────────────────────────
// Atom and Bond
// ─────────────────────────────────────────────────────────────────────────────

// Atom is a vertex of the molecular graph.
type Atom struct {
	AtomicNumber int
	Symbol       string
	Charge       int
	ImplicitH    int
	// MassNumber is the isotope mass number, 0 when unset.
	MassNumber int
	Aromatic   bool
	// MapIdx is the reaction atom-map index, 0 when unmapped.
	MapIdx int
	// Radicals is the single-electron count.
	Radicals int
}

// IsHydrogen reports whether the atom is a hydrogen of any isotope.
func (a *Atom) IsHydrogen() bool { return a.AtomicNumber == 1 }

// Bond is an edge of the molecular graph.  Begin and End index the owning
// molecule's atom arena.
type Bond struct {
	Begin   int
	End     int
	Order   Order
	Display Display
	// InRing is set by PerceiveRings.
	InRing bool
}

// Other returns the endpoint opposite atom, or -1 when atom is not an
// endpoint of the bond.
func (b *Bond) Other(atom int) int {
	switch atom {
	case b.Begin:
		return b.End
	case b.End:
		return b.Begin
	default:
		return -1
	}
}

// Contains reports whether atom is an endpoint of the bond.
func (b *Bond) Contains(atom int) bool {
	return b.Begin == atom || b.End == atom
}

// ─────────────────────────────────────────────────────────────────────────────
// Molecule arena
// ─────────────────────────────────────────────────────────────────────────────

// Molecule owns its atoms and bonds, the stereo elements describing their
// spatial arrangement and the s-groups used for collapsed labels.
type Molecule struct {
	Title   string
	Stereo  []StereoElement
	Sgroups []*Sgroup

	atoms []Atom
	bonds []Bond
	adj   [][]int
}

// New returns an empty molecule.
func New() *Molecule {
	return &Molecule{}
}

// AddAtom appends a to the arena and returns its index.
func (m *Molecule) AddAtom(a Atom) int {
	if a.Symbol == "" {
		a.Symbol = SymbolOf(a.AtomicNumber)
	}
	m.atoms = append(m.atoms, a)
	m.adj = append(m.adj, nil)
	return len(m.atoms) - 1
}

// AddBond appends a bond between begin and end and returns its index.  It
// panics when either index is outside the arena or the two are equal; callers
// building a molecule from untrusted input check indices first.
func (m *Molecule) AddBond(begin, end int, order Order) int {
	if begin < 0 || begin >= len(m.atoms) || end < 0 || end >= len(m.atoms) || begin == end {
		panic(fmt.Sprintf("molecule: invalid bond %d-%d for %d atoms", begin, end, len(m.atoms)))
	}
	m.bonds = append(m.bonds, Bond{Begin: begin, End: end, Order: order})
	idx := len(m.bonds) - 1
	m.adj[begin] = append(m.adj[begin], idx)
	m.adj[end] = append(m.adj[end], idx)
	return idx
}

// AtomCount returns the number of atoms in the arena.
func (m *Molecule) AtomCount() int { return len(m.atoms) }

// BondCount returns the number of bonds in the arena.
func (m *Molecule) BondCount() int { return len(m.bonds) }

// Atom returns a mutable view of atom i.
func (m *Molecule) Atom(i int) *Atom { return &m.atoms[i] }

// Bond returns a mutable view of bond i.
func (m *Molecule) Bond(i int) *Bond { return &m.bonds[i] }

// HasAtom reports whether i is a valid atom index.
func (m *Molecule) HasAtom(i int) bool { return i >= 0 && i < len(m.atoms) }

// HasBond reports whether i is a valid bond index.
func (m *Molecule) HasBond(i int) bool { return i >= 0 && i < len(m.bonds) }

// BondsOf returns the indices of the bonds incident to atom i.  The slice is
// shared with the arena and must not be modified.
func (m *Molecule) BondsOf(i int) []int { return m.adj[i] }

// Degree returns the number of explicit bonds incident to atom i.
func (m *Molecule) Degree(i int) int { return len(m.adj[i]) }

// Neighbors returns the atoms bonded to atom i in bond order.
func (m *Molecule) Neighbors(i int) []int {
	nbrs := make([]int, 0, len(m.adj[i]))
	for _, b := range m.adj[i] {
		nbrs = append(nbrs, m.bonds[b].Other(i))
	}
	return nbrs
}

// BondBetween returns the index of the bond joining a and b, or -1.
func (m *Molecule) BondBetween(a, b int) int {
	if !m.HasAtom(a) || !m.HasAtom(b) {
		return -1
	}
	for _, idx := range m.adj[a] {
		if m.bonds[idx].Other(a) == b {
			return idx
		}
	}
	return -1
}

// Clone returns a deep copy of the molecule.
func (m *Molecule) Clone() *Molecule {
	c := &Molecule{
		Title: m.Title,
		atoms: append([]Atom(nil), m.atoms...),
		bonds: append([]Bond(nil), m.bonds...),
		adj:   make([][]int, len(m.adj)),
	}
	for i, a := range m.adj {
		c.adj[i] = append([]int(nil), a...)
	}
	c.Stereo = append([]StereoElement(nil), m.Stereo...)
	for _, sg := range m.Sgroups {
		c.Sgroups = append(c.Sgroups, sg.Clone())
	}
	return c
}

// Validate checks that every stereo element and s-group refers to atoms and
// bonds of this molecule and that stereo carriers are attached to their
// focus.
func (m *Molecule) Validate() error {
	for i, a := range m.atoms {
		if a.ImplicitH < 0 {
			return errors.New(errors.ErrCodeInvalidGraph, "negative implicit hydrogen count").
				WithDetail(fmt.Sprintf("atom %d", i))
		}
	}
	for i, e := range m.Stereo {
		if err := m.validateStereo(e); err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidGraph, fmt.Sprintf("stereo element %d", i))
		}
	}
	for i, sg := range m.Sgroups {
		for _, a := range sg.Atoms {
			if !m.HasAtom(a) {
				return errors.New(errors.ErrCodeInvalidGraph, "s-group atom out of range").
					WithDetail(fmt.Sprintf("sgroup %d atom %d", i, a))
			}
		}
		for _, a := range sg.ParentAtoms {
			if !m.HasAtom(a) {
				return errors.New(errors.ErrCodeInvalidGraph, "s-group parent atom out of range").
					WithDetail(fmt.Sprintf("sgroup %d atom %d", i, a))
			}
		}
		for _, b := range sg.Bonds {
			if !m.HasBond(b) {
				return errors.New(errors.ErrCodeInvalidGraph, "s-group bond out of range").
					WithDetail(fmt.Sprintf("sgroup %d bond %d", i, b))
			}
			bond := &m.bonds[b]
			if !sg.HasAtom(bond.Begin) && !sg.HasAtom(bond.End) {
				return errors.New(errors.ErrCodeInvalidGraph, "s-group bond has no member endpoint").
					WithDetail(fmt.Sprintf("sgroup %d bond %d", i, b))
			}
		}
	}
	return nil
}

func (m *Molecule) validateStereo(e StereoElement) error {
	carriers := e.Carriers()
	if len(carriers) != e.Kind().CarrierCount() {
		return errors.New(errors.ErrCodeInvalidGraph, "wrong carrier count")
	}
	attached := func(c, to int) bool { return c == to || m.BondBetween(c, to) >= 0 }
	switch e.Kind() {
	case KindCisTrans:
		if !m.HasBond(e.Focus()) {
			return errors.New(errors.ErrCodeInvalidGraph, "focus bond out of range")
		}
		db := m.bonds[e.Focus()]
		for _, c := range carriers {
			if !m.HasAtom(c) || !(attached(c, db.Begin) || attached(c, db.End)) {
				return errors.New(errors.ErrCodeInvalidGraph, "carrier not attached to double bond")
			}
		}
	case KindAllenal:
		if !m.HasAtom(e.Focus()) {
			return errors.New(errors.ErrCodeInvalidGraph, "focus atom out of range")
		}
		a, b, ok := AlleneTerminals(m, e.Focus())
		if !ok {
			return errors.New(errors.ErrCodeInvalidGraph, "focus is not the centre of a cumulated system")
		}
		for _, c := range carriers {
			if !m.HasAtom(c) || !(attached(c, a) || attached(c, b)) {
				return errors.New(errors.ErrCodeInvalidGraph, "carrier not attached to allene terminal")
			}
		}
	default:
		if !m.HasAtom(e.Focus()) {
			return errors.New(errors.ErrCodeInvalidGraph, "focus atom out of range")
		}
		for _, c := range carriers {
			if !m.HasAtom(c) || !attached(c, e.Focus()) {
				return errors.New(errors.ErrCodeInvalidGraph, "carrier not attached to focus")
			}
		}
	}
	return nil
}

// removeAtoms deletes every atom flagged in drop together with its bonds and
// re-indexes stereo elements and s-groups.  Stereo elements that lose a
// referenced atom are discarded; s-groups lose the removed members and are
// discarded when no atom remains.
func (m *Molecule) removeAtoms(drop []bool) {
	atomMap := make([]int, len(m.atoms))
	atoms := make([]Atom, 0, len(m.atoms))
	for i, a := range m.atoms {
		if drop[i] {
			atomMap[i] = -1
			continue
		}
		atomMap[i] = len(atoms)
		atoms = append(atoms, a)
	}

	bondMap := make([]int, len(m.bonds))
	bonds := make([]Bond, 0, len(m.bonds))
	for j, b := range m.bonds {
		if atomMap[b.Begin] < 0 || atomMap[b.End] < 0 {
			bondMap[j] = -1
			continue
		}
		b.Begin, b.End = atomMap[b.Begin], atomMap[b.End]
		bondMap[j] = len(bonds)
		bonds = append(bonds, b)
	}

	m.atoms, m.bonds = atoms, bonds
	m.adj = make([][]int, len(atoms))
	for j, b := range bonds {
		m.adj[b.Begin] = append(m.adj[b.Begin], j)
		m.adj[b.End] = append(m.adj[b.End], j)
	}

	stereo := m.Stereo[:0]
	for _, e := range m.Stereo {
		if ne, ok := e.reindex(atomMap, bondMap); ok {
			stereo = append(stereo, ne)
		}
	}
	m.Stereo = stereo

	sgroups := m.Sgroups[:0]
	for _, sg := range m.Sgroups {
		sg.Atoms = remapIndices(sg.Atoms, atomMap)
		sg.Bonds = remapIndices(sg.Bonds, bondMap)
		sg.ParentAtoms = remapIndices(sg.ParentAtoms, atomMap)
		if len(sg.Atoms) > 0 {
			sgroups = append(sgroups, sg)
		}
	}
	m.Sgroups = sgroups
}

func remapIndices(idx []int, mapping []int) []int {
	out := idx[:0]
	for _, i := range idx {
		if i >= 0 && i < len(mapping) && mapping[i] >= 0 {
			out = append(out, mapping[i])
		}
	}
	return out
}

//Personal.AI order the ending
