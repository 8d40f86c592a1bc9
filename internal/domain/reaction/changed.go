package reaction

import (
	"sort"

	"github.com/turtacn/KeyIP-Depict/internal/domain/molecule"
)

// AtomMark assigns a highlight group to one atom of a reaction component.
type AtomMark struct {
	Role  Role `json:"role"`
	Mol   int  `json:"mol"`
	Atom  int  `json:"atom"`
	Group int  `json:"group"`
}

type mappedAtom struct {
	role   Role
	mol    int
	atom   int
	mapIdx int
	degree int
	hcount int
}

// MarkChangedAtoms finds mapped atoms whose bond count or implicit hydrogen
// count differs between their occurrences in the reaction. Every atom of such
// a map index receives its own group, numbered consecutively after group. It
// returns the marks and the last group number used; an unmapped reaction
// yields no marks and group unchanged.
func MarkChangedAtoms(r *Reaction, group int) ([]AtomMark, int) {
	var atoms []mappedAtom
	r.Each(func(role Role, mi int, m *molecule.Molecule) {
		for i := 0; i < m.AtomCount(); i++ {
			a := m.Atom(i)
			if a.MapIdx == 0 {
				continue
			}
			atoms = append(atoms, mappedAtom{
				role: role, mol: mi, atom: i,
				mapIdx: a.MapIdx, degree: m.Degree(i), hcount: a.ImplicitH,
			})
		}
	})
	if len(atoms) == 0 {
		return nil, group
	}
	sort.SliceStable(atoms, func(i, j int) bool { return atoms[i].mapIdx < atoms[j].mapIdx })

	var marks []AtomMark
	flush := func(run []mappedAtom) {
		first := run[0]
		changed := false
		for _, a := range run[1:] {
			if a.degree != first.degree || a.hcount != first.hcount {
				changed = true
				break
			}
		}
		if !changed {
			return
		}
		for _, a := range run {
			group++
			marks = append(marks, AtomMark{Role: a.role, Mol: a.mol, Atom: a.atom, Group: group})
		}
	}

	start := 0
	for i := 1; i <= len(atoms); i++ {
		if i == len(atoms) || atoms[i].mapIdx != atoms[start].mapIdx {
			flush(atoms[start:i])
			start = i
		}
	}
	return marks, group
}

//Personal.AI order the ending
