package molecule

import (
	"fmt"
	"strconv"
)

// ContractHydrates collapses two or more disconnected water molecules into a
// single label.  When the only s-group is an abbreviation, the waters join it
// and its label gains a "·nH2O" suffix, provided it covers every other atom
// and none of the waters; an abbreviation that fails either test is left
// alone.  Otherwise the waters become a multiple group with subscript n.
func ContractHydrates(m *Molecule) {
	var waters []int
	for i := range m.atoms {
		a := &m.atoms[i]
		if a.AtomicNumber == elemO && a.ImplicitH == 2 && len(m.adj[i]) == 0 {
			waters = append(waters, i)
		}
	}
	if len(waters) < 2 {
		return
	}

	if len(m.Sgroups) == 1 && m.Sgroups[0].Type == SgroupAbbreviation {
		sg := m.Sgroups[0]
		overlap := false
		for _, w := range waters {
			if sg.HasAtom(w) {
				overlap = true
				break
			}
		}
		if !overlap && len(sg.Atoms)+len(waters) == len(m.atoms) {
			for _, w := range waters {
				sg.AddAtom(w)
			}
			sg.Subscript = fmt.Sprintf("%s·%dH2O", sg.Subscript, len(waters))
		}
		return
	}

	m.Sgroups = append(m.Sgroups, &Sgroup{
		Type:        SgroupMultiple,
		Subscript:   strconv.Itoa(len(waters)),
		Atoms:       waters,
		ParentAtoms: []int{waters[0]},
	})
}

//Personal.AI order the ending
