package reaction

import (
	"sort"

	"github.com/turtacn/KeyIP-Depict/internal/domain/molecule"
)

// atomRef locates an atom within one side of a reaction.
type atomRef struct {
	mol  int
	atom int
}

// groupRef is an abbreviation together with the molecule that owns it. A
// negative mol marks a copy whose members span several molecules.
type groupRef struct {
	sgroup *molecule.Sgroup
	mol    int
}

// abbreviationMap indexes one side of a reaction by atom-map index. Map
// indices are caller supplied and unbounded, so slots are keyed rather than
// dense.
type abbreviationMap struct {
	mols      []*molecule.Molecule
	atoms     map[int]*atomRef
	abbrvs    map[int]*groupRef
	maxMapIdx int
	unique    bool
}

func newAbbreviationMap(mols []*molecule.Molecule) *abbreviationMap {
	am := &abbreviationMap{
		mols:   mols,
		atoms:  make(map[int]*atomRef),
		abbrvs: make(map[int]*groupRef),
		unique: true,
	}
	for mi, m := range mols {
		am.extract(mi, m)
	}
	return am
}

func (am *abbreviationMap) extract(mi int, m *molecule.Molecule) {
	for i := 0; i < m.AtomCount(); i++ {
		idx := m.Atom(i).MapIdx
		if idx <= 0 {
			continue
		}
		if idx > am.maxMapIdx {
			am.maxMapIdx = idx
		}
		if am.atoms[idx] != nil {
			am.unique = false
		}
		am.atoms[idx] = &atomRef{mol: mi, atom: i}
	}
	for _, sg := range m.Sgroups {
		if sg.Type != molecule.SgroupAbbreviation {
			continue
		}
		ref := &groupRef{sgroup: sg, mol: mi}
		for _, a := range sg.Atoms {
			if !m.HasAtom(a) {
				continue
			}
			if idx := m.Atom(a).MapIdx; idx > 0 {
				am.setAbbreviation(idx, ref)
			}
		}
	}
}

func (am *abbreviationMap) atomAt(idx int) *atomRef {
	if idx <= 0 {
		return nil
	}
	return am.atoms[idx]
}

func (am *abbreviationMap) abbreviationAt(idx int) *groupRef {
	if idx <= 0 {
		return nil
	}
	return am.abbrvs[idx]
}

func (am *abbreviationMap) setAbbreviation(idx int, ref *groupRef) {
	am.abbrvs[idx] = ref
}

// mappedIndices returns the map indices present on either side, up to and
// including last, in ascending order.
func mappedIndices(a, b *abbreviationMap, last int) []int {
	seen := make(map[int]struct{}, len(a.atoms)+len(b.atoms))
	out := make([]int, 0, len(a.atoms)+len(b.atoms))
	for _, side := range [2]*abbreviationMap{a, b} {
		for idx := range side.atoms {
			if _, dup := seen[idx]; dup || idx > last {
				continue
			}
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Synchronisation
// ─────────────────────────────────────────────────────────────────────────────

// pendingCopy is a successfully built group waiting to be installed on side.
type pendingCopy struct {
	ref  *groupRef
	side *abbreviationMap
}

// SyncAbbreviations copies abbreviation s-groups present on one side of a
// mapped reaction onto the matching atoms of the other side and returns the
// number of groups installed. A copy the mapping does not fully support is
// skipped. Duplicate map indices on either side disable the pass.
func SyncAbbreviations(r *Reaction) int {
	rmap := newAbbreviationMap(r.Reactants)
	pmap := newAbbreviationMap(r.Products)
	if !rmap.unique || !pmap.unique {
		return 0
	}

	last := rmap.maxMapIdx
	if pmap.maxMapIdx < last {
		last = pmap.maxMapIdx
	}

	var pending []pendingCopy
	// Abbreviations only sit on mapped atoms, so the mapped indices cover
	// every slot that can take part.
	for _, idx := range mappedIndices(rmap, pmap, last) {
		rAbbrv := rmap.abbreviationAt(idx)
		pAbbrv := pmap.abbreviationAt(idx)
		switch {
		case pAbbrv != nil && rAbbrv == nil:
			if ref := copySgroup(pmap, pAbbrv, rmap); ref != nil {
				pending = append(pending, pendingCopy{ref: ref, side: rmap})
			}
		case rAbbrv != nil && pAbbrv == nil:
			if ref := copySgroup(rmap, rAbbrv, pmap); ref != nil {
				pending = append(pending, pendingCopy{ref: ref, side: pmap})
			}
		}
	}

	installed := 0
	for _, p := range pending {
		if len(p.ref.sgroup.Atoms) == 0 || p.ref.mol < 0 {
			continue
		}
		m := p.side.mols[p.ref.mol]
		m.Sgroups = append(m.Sgroups, p.ref.sgroup)
		installed++
	}
	return installed
}

// copySgroup rebuilds the abbreviation src (owned by a molecule on side from)
// over the atoms of side to that carry the same map indices. It returns nil
// when any member is unmapped, already abbreviated, differs in hydrogen count,
// or when connectivity around the group does not match. On success the new
// group is recorded in to for each of its members.
func copySgroup(from *abbreviationMap, src *groupRef, to *abbreviationMap) *groupRef {
	srcMol := from.mols[src.mol]
	dst := &molecule.Sgroup{Type: src.sgroup.Type, Subscript: src.sgroup.Subscript}

	members := make([]*atomRef, 0, len(src.sgroup.Atoms))
	mapIdx := make([]int, 0, len(src.sgroup.Atoms))
	owner := -1
	srcDegree, dstDegree := 0, 0
	for _, a := range src.sgroup.Atoms {
		if !srcMol.HasAtom(a) {
			return nil
		}
		srcAtom := srcMol.Atom(a)
		idx := srcAtom.MapIdx
		ref := to.atomAt(idx)
		if ref == nil || to.abbreviationAt(idx) != nil {
			return nil
		}
		dstMol := to.mols[ref.mol]
		if srcAtom.ImplicitH != dstMol.Atom(ref.atom).ImplicitH {
			return nil
		}
		srcDegree += srcMol.Degree(a)
		dstDegree += dstMol.Degree(ref.atom)

		switch {
		case owner == -1:
			owner = ref.mol
		case owner != ref.mol:
			owner = -2
		}
		members = append(members, ref)
		mapIdx = append(mapIdx, idx)
	}
	if srcDegree != dstDegree {
		return nil
	}

	for _, b := range src.sgroup.Bonds {
		if !srcMol.HasBond(b) {
			return nil
		}
		bond := srcMol.Bond(b)
		ra := to.atomAt(srcMol.Atom(bond.Begin).MapIdx)
		rb := to.atomAt(srcMol.Atom(bond.End).MapIdx)
		if ra == nil || rb == nil || ra.mol != rb.mol {
			return nil
		}
		tb := to.mols[ra.mol].BondBetween(ra.atom, rb.atom)
		if tb < 0 {
			return nil
		}
		dst.AddBond(tb)
	}

	if !closed(to, members, dst) {
		return nil
	}

	for _, ref := range members {
		dst.AddAtom(ref.atom)
	}
	out := &groupRef{sgroup: dst, mol: owner}
	if owner < 0 {
		out.mol = -1
	}
	for _, idx := range mapIdx {
		to.setAbbreviation(idx, out)
	}
	return out
}

// closed reports whether every bond touching a member either belongs to the
// group or joins two members.
func closed(side *abbreviationMap, members []*atomRef, sg *molecule.Sgroup) bool {
	isMember := make(map[atomRef]bool, len(members))
	for _, ref := range members {
		isMember[*ref] = true
	}
	for _, ref := range members {
		m := side.mols[ref.mol]
		for _, b := range m.BondsOf(ref.atom) {
			if ref.mol == members[0].mol && sg.HasBond(b) {
				continue
			}
			other := m.Bond(b).Other(ref.atom)
			if !isMember[atomRef{mol: ref.mol, atom: other}] {
				return false
			}
		}
	}
	return true
}

//Personal.AI order the ending
