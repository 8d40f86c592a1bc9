package molecule

// SuppressHydrogens folds every explicit hydrogen that can be expressed as an
// implicit count back into its neighbour and compacts the arena.  Hydrogens
// are kept when they carry an isotope, charge, radical or map index, belong
// to an s-group, are wedged, bridge two atoms or are bonded to another
// hydrogen.  Stereo carriers that pointed at a removed hydrogen are replaced
// by the placeholder convention of their variant.
func SuppressHydrogens(m *Molecule) {
	inSgroup := make([]bool, len(m.atoms))
	for _, sg := range m.Sgroups {
		for _, a := range sg.Atoms {
			if a >= 0 && a < len(inSgroup) {
				inSgroup[a] = true
			}
		}
	}

	drop := make([]bool, len(m.atoms))
	found := false
	for i := range m.atoms {
		if suppressible(m, i, inSgroup) {
			drop[i] = true
			found = true
		}
	}
	if !found {
		return
	}

	// double bond carriers first: they can veto a removal
	stereo := make([]StereoElement, len(m.Stereo))
	copy(stereo, m.Stereo)
	for k, e := range stereo {
		if e.Kind() == KindCisTrans && m.HasBond(e.Focus()) {
			stereo[k] = suppressCisTrans(m, e, drop)
		}
	}
	for k, e := range stereo {
		if e.Kind() == KindCisTrans {
			continue
		}
		sub := make(map[int]int)
		for _, c := range e.Carriers() {
			if c >= 0 && c < len(drop) && drop[c] {
				sub[c] = m.bonds[m.adj[c][0]].Other(c)
			}
		}
		if len(sub) > 0 {
			stereo[k] = e.Remap(sub)
		}
	}
	m.Stereo = stereo

	for i, d := range drop {
		if d {
			parent := m.bonds[m.adj[i][0]].Other(i)
			m.atoms[parent].ImplicitH++
		}
	}
	m.removeAtoms(drop)
}

func suppressible(m *Molecule, i int, inSgroup []bool) bool {
	a := &m.atoms[i]
	if !a.IsHydrogen() || a.MassNumber != 0 || a.Charge != 0 || a.Radicals != 0 || a.MapIdx != 0 {
		return false
	}
	if inSgroup[i] || len(m.adj[i]) != 1 {
		return false
	}
	b := &m.bonds[m.adj[i][0]]
	if b.Order != OrderSingle || b.Display != DisplaySolid {
		return false
	}
	return !m.atoms[b.Other(i)].IsHydrogen()
}

// suppressCisTrans swaps every removable hydrogen carrier of a double bond
// element for the other substituent on the same end, flipping the
// configuration each time.  A hydrogen with no substitute is kept.
func suppressCisTrans(m *Molecule, e StereoElement, drop []bool) StereoElement {
	db := m.bonds[e.Focus()]
	carriers := e.Carriers()
	config := e.Config()
	changed := false
	for k, c := range carriers {
		if c < 0 || c >= len(drop) || !drop[c] {
			continue
		}
		end := m.bonds[m.adj[c][0]].Other(c)
		if end != db.Begin && end != db.End {
			continue
		}
		alt := -1
		for _, nbr := range m.Neighbors(end) {
			if nbr != c && nbr != db.Other(end) && !drop[nbr] {
				alt = nbr
				break
			}
		}
		if alt < 0 {
			drop[c] = false
			continue
		}
		carriers[k] = alt
		config = flipCisTrans(config)
		changed = true
	}
	if !changed {
		return e
	}
	return withCarriers(e, carriers, config)
}

func flipCisTrans(config int) int {
	switch config {
	case ConfigOpposite:
		return ConfigTogether
	case ConfigTogether:
		return ConfigOpposite
	default:
		return config
	}
}

// ConvertImplicitToExplicit sprouts a hydrogen atom for every implicit
// hydrogen.  Stereo placeholders (the focus of a centred element, the
// terminal of an allene) are replaced by the new atoms in carrier order.
func ConvertImplicitToExplicit(m *Molecule) {
	n := len(m.atoms)
	pool := make(map[int][]int)
	for i := 0; i < n; i++ {
		k := m.atoms[i].ImplicitH
		if k <= 0 {
			continue
		}
		m.atoms[i].ImplicitH = 0
		for ; k > 0; k-- {
			pool[i] = append(pool[i], sproutHydrogen(m, i))
		}
	}
	if len(pool) == 0 {
		return
	}

	for idx, e := range m.Stereo {
		if e.Kind() == KindCisTrans || !focusInRange(m, e) {
			continue
		}
		placeholder := func(c int) bool { return c == e.Focus() }
		if e.Kind() == KindAllenal {
			t1, t2, ok := AlleneTerminals(m, e.Focus())
			if !ok {
				continue
			}
			placeholder = func(c int) bool { return c == t1 || c == t2 }
		}
		carriers := e.Carriers()
		changed := false
		for k, c := range carriers {
			if placeholder(c) && len(pool[c]) > 0 {
				carriers[k] = pool[c][0]
				pool[c] = pool[c][1:]
				changed = true
			}
		}
		if changed {
			m.Stereo[idx] = withCarriers(e, carriers, e.Config())
		}
	}
}

//Personal.AI order the ending
