package molecule

import "strings"

// ─────────────────────────────────────────────────────────────────────────────
// Display modes
// ─────────────────────────────────────────────────────────────────────────────

// HydrogenDisplay selects how hydrogens are drawn.
type HydrogenDisplay int

const (
	// HydrogenProvided keeps hydrogens exactly as given.
	HydrogenProvided HydrogenDisplay = iota
	// HydrogenMinimal folds every foldable hydrogen into implicit counts.
	HydrogenMinimal
	// HydrogenExplicit draws every hydrogen as an atom.
	HydrogenExplicit
	// HydrogenStereo draws the hydrogens stereo elements need.
	HydrogenStereo
	// HydrogenSmart draws the hydrogens needed to disambiguate ring fusions
	// and adjacent stereocentres.
	HydrogenSmart
)

func (h HydrogenDisplay) String() string {
	switch h {
	case HydrogenProvided:
		return "provided"
	case HydrogenMinimal:
		return "minimal"
	case HydrogenExplicit:
		return "explicit"
	case HydrogenStereo:
		return "stereo"
	default:
		return "smart"
	}
}

// Letter is the single character alias of the mode.
func (h HydrogenDisplay) Letter() string {
	switch h {
	case HydrogenProvided:
		return "P"
	case HydrogenMinimal:
		return "M"
	case HydrogenExplicit:
		return "X"
	case HydrogenStereo:
		return "C"
	default:
		return "S"
	}
}

// HydrogenDisplays lists every mode in declaration order.
func HydrogenDisplays() []HydrogenDisplay {
	return []HydrogenDisplay{HydrogenProvided, HydrogenMinimal, HydrogenExplicit, HydrogenStereo, HydrogenSmart}
}

// ParseHydrogenDisplay resolves a mode name, its letter alias or one of the
// legacy names.  Unknown input falls back to HydrogenSmart.
func ParseHydrogenDisplay(s string) HydrogenDisplay {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "provided", "p":
		return HydrogenProvided
	case "minimal", "m", "suppressed":
		return HydrogenMinimal
	case "explicit", "x":
		return HydrogenExplicit
	case "stereo", "c":
		return HydrogenStereo
	default:
		return HydrogenSmart
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Transformer
// ─────────────────────────────────────────────────────────────────────────────

// SetHydrogenDisplay rewrites the hydrogens of m for the given mode.  Stereo
// element configurations are preserved: whenever an implicit hydrogen is
// materialised the new atom takes the carrier slot of its placeholder.
func SetHydrogenDisplay(m *Molecule, mode HydrogenDisplay) {
	switch mode {
	case HydrogenProvided:
	case HydrogenMinimal:
		SuppressHydrogens(m)
	case HydrogenExplicit:
		ConvertImplicitToExplicit(m)
	case HydrogenStereo:
		SuppressHydrogens(m)
		materialize(m, false)
	case HydrogenSmart:
		SuppressHydrogens(m)
		PerceiveRings(m)
		materialize(m, true)
	}
}

// materialize sprouts the hydrogens each stereo element needs.  With gated
// set, tetrahedral and cis/trans hydrogens are only drawn where shouldAddH
// holds.
func materialize(m *Molecule, gated bool) {
	orig := m.Stereo
	out := make([]StereoElement, 0, len(orig))
	for _, e := range orig {
		if !focusInRange(m, e) {
			out = append(out, e)
			continue
		}
		switch e.Kind() {
		case KindTetrahedral:
			focus := e.Focus()
			if m.atoms[focus].ImplicitH == 1 && (!gated || shouldAddH(m, focus, orig)) {
				e = explicitCarriers(m, e)
			}
		case KindSquarePlanar, KindTrigonalBipyramidal, KindOctahedral:
			if m.atoms[e.Focus()].ImplicitH > 0 {
				e = explicitCarriers(m, e)
			}
		case KindCisTrans:
			db := m.bonds[e.Focus()]
			sub := make(map[int]int, 2)
			for _, end := range [2]int{db.Begin, db.End} {
				if m.atoms[end].ImplicitH == 1 && (!gated || shouldAddH(m, end, orig)) {
					m.atoms[end].ImplicitH = 0
					sub[end] = sproutHydrogen(m, end)
				}
			}
			if len(sub) > 0 {
				e = e.Remap(sub)
			}
		case KindAllenal:
			t1, t2, ok := AlleneTerminals(m, e.Focus())
			if !ok {
				break
			}
			sub := make(map[int]int, 2)
			for _, t := range [2]int{t1, t2} {
				if m.atoms[t].ImplicitH == 1 {
					m.atoms[t].ImplicitH = 0
					sub[t] = sproutHydrogen(m, t)
				}
			}
			if len(sub) > 0 {
				e = e.Remap(sub)
			}
		}
		out = append(out, e)
	}
	m.Stereo = out
}

// explicitCarriers sprouts every implicit hydrogen of the element's focus and
// hands them out, in carrier order, to the slots holding the focus itself.
func explicitCarriers(m *Molecule, e StereoElement) StereoElement {
	focus := e.Focus()
	n := m.atoms[focus].ImplicitH
	hs := make([]int, 0, n)
	for k := 0; k < n; k++ {
		hs = append(hs, sproutHydrogen(m, focus))
	}
	m.atoms[focus].ImplicitH = 0

	carriers := e.Carriers()
	for k, c := range carriers {
		if c == focus && len(hs) > 0 {
			carriers[k] = hs[0]
			hs = hs[1:]
		}
	}
	return withCarriers(e, carriers, e.Config())
}

// shouldAddH decides whether the implicit hydrogen on atom hides a wedge that
// would otherwise be ambiguous.  stereo is the element list as it was before
// any hydrogen was sprouted.
func shouldAddH(m *Molecule, atom int, stereo []StereoElement) bool {
	count := 0
	for _, bi := range m.adj[atom] {
		b := &m.bonds[bi]
		nbr := b.Other(atom)
		if b.InRing {
			count++
		} else {
			for _, e := range stereo {
				if e.Kind() == KindTetrahedral && e.Focus() == nbr {
					count++
				}
			}
		}
		if m.atoms[nbr].IsHydrogen() && m.atoms[nbr].MassNumber != 0 {
			return true
		}
	}
	return count == 3
}

// sproutHydrogen appends a hydrogen singly bonded to focus and returns its
// index.
func sproutHydrogen(m *Molecule, focus int) int {
	h := m.AddAtom(Atom{AtomicNumber: elemH, Symbol: "H"})
	m.AddBond(focus, h, OrderSingle)
	return h
}

func focusInRange(m *Molecule, e StereoElement) bool {
	if e.Kind() == KindCisTrans {
		return m.HasBond(e.Focus())
	}
	return m.HasAtom(e.Focus())
}

func withCarriers(e StereoElement, carriers []int, config int) StereoElement {
	ne, err := NewStereo(e.Kind(), e.Focus(), carriers, config, e.Group())
	if err != nil {
		return e
	}
	return ne
}

// ─────────────────────────────────────────────────────────────────────────────
// Cumulated systems
// ─────────────────────────────────────────────────────────────────────────────

// AlleneTerminals walks the cumulated double bonds out from focus in both
// directions and returns the two terminal atoms.  ok is false when focus is
// not the centre of a cumulated system.
func AlleneTerminals(m *Molecule, focus int) (int, int, bool) {
	if !m.HasAtom(focus) {
		return -1, -1, false
	}
	ends := make([]int, 0, 2)
	for _, bi := range m.adj[focus] {
		b := &m.bonds[bi]
		if b.Order == OrderDouble {
			ends = append(ends, walkCumulated(m, focus, b.Other(focus)))
		}
	}
	if len(ends) != 2 || len(m.adj[focus]) != 2 {
		return -1, -1, false
	}
	return ends[0], ends[1], true
}

func walkCumulated(m *Molecule, prev, cur int) int {
	for steps := 0; steps < len(m.atoms); steps++ {
		next, doubles := -1, 0
		for _, bi := range m.adj[cur] {
			b := &m.bonds[bi]
			if b.Order != OrderDouble {
				continue
			}
			doubles++
			if o := b.Other(cur); o != prev {
				next = o
			}
		}
		if doubles != 2 || next < 0 {
			return cur
		}
		prev, cur = cur, next
	}
	return cur
}

//Personal.AI order the ending
