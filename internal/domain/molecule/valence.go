package molecule

import "strings"

// ─────────────────────────────────────────────────────────────────────────────
// Valence arithmetic
// ─────────────────────────────────────────────────────────────────────────────

// Valence returns the implicit hydrogen count of atom i plus the numeric
// order of every incident bond whose order is set.
func Valence(m *Molecule, i int) int {
	v := m.atoms[i].ImplicitH
	for _, b := range m.adj[i] {
		v += m.bonds[b].Order.Numeric()
	}
	return v
}

// PerceiveRadicals adds single electrons to neutral C, N and O atoms whose
// valence falls short of their closed-shell value.  Calling it twice adds the
// electrons twice.
func PerceiveRadicals(m *Molecule) {
	for i := range m.atoms {
		a := &m.atoms[i]
		if a.Charge != 0 {
			continue
		}
		v := Valence(m, i)
		switch a.AtomicNumber {
		case elemC:
			if v == 2 {
				a.Radicals++
			}
			if v < 4 {
				a.Radicals++
			}
		case elemN:
			if v < 3 {
				a.Radicals++
			}
		case elemO:
			if v < 2 {
				a.Radicals++
			}
			if v < 1 {
				a.Radicals++
			}
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Dative bonds
// ─────────────────────────────────────────────────────────────────────────────

// DativePolicy selects which acceptors a dative bond may point at.
type DativePolicy int

const (
	// DativeMetals only accepts metals.
	DativeMetals DativePolicy = iota
	// DativeAlways also accepts tetravalent boron and monovalent oxygen.
	DativeAlways
	// DativeNever disables dative perception.
	DativeNever
)

func (p DativePolicy) String() string {
	switch p {
	case DativeAlways:
		return "always"
	case DativeNever:
		return "never"
	default:
		return "metals"
	}
}

// ParseDativePolicy accepts y/m/n and the policy names in any case.  Empty or
// unrecognised input yields DativeMetals.
func ParseDativePolicy(s string) DativePolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "always":
		return DativeAlways
	case "n", "no", "never":
		return DativeNever
	default:
		return DativeMetals
	}
}

func isDonor(m *Molecule, i, charge int) bool {
	a := &m.atoms[i]
	if a.Charge != charge {
		return false
	}
	switch a.AtomicNumber {
	case elemN, elemP:
		return Valence(m, i) == 4
	case elemO:
		return Valence(m, i) == 3
	default:
		return false
	}
}

func isAcceptor(m *Molecule, i, charge int, policy DativePolicy) bool {
	a := &m.atoms[i]
	if IsMetal(a.AtomicNumber) {
		// A charge-separated acceptor must carry the negative charge the
		// donor's positive charge is contracted against.
		if charge < 0 {
			return a.Charge < 0
		}
		return true
	}
	if policy != DativeAlways || a.Charge != charge {
		return false
	}
	switch a.AtomicNumber {
	case elemB:
		return Valence(m, i) == 4
	case elemO:
		return Valence(m, i) == 1
	default:
		return false
	}
}

func setArrow(b *Bond, acceptor int) {
	if b.End == acceptor {
		b.Display = DisplayArrowEnd
	} else {
		b.Display = DisplayArrowBegin
	}
}

// PerceiveDativeBonds marks donor-acceptor bonds with arrow displays.  The
// charge-separated pass runs first and neutralises both endpoints of every
// bond it marks; the neutral pass then marks hypervalent donors bonded to
// neutral acceptors.  Running it again on the same molecule changes nothing.
func PerceiveDativeBonds(m *Molecule, policy DativePolicy) {
	if policy == DativeNever {
		return
	}

	for j := range m.bonds {
		b := &m.bonds[j]
		for _, ends := range [2][2]int{{b.Begin, b.End}, {b.End, b.Begin}} {
			donor, acceptor := ends[0], ends[1]
			if isDonor(m, donor, +1) && isAcceptor(m, acceptor, -1, policy) {
				setArrow(b, acceptor)
				m.atoms[donor].Charge--
				m.atoms[acceptor].Charge++
				break
			}
		}
	}

	for j := range m.bonds {
		b := &m.bonds[j]
		for _, ends := range [2][2]int{{b.Begin, b.End}, {b.End, b.Begin}} {
			donor, acceptor := ends[0], ends[1]
			if isDonor(m, donor, 0) && isAcceptor(m, acceptor, 0, policy) {
				setArrow(b, acceptor)
				break
			}
		}
	}
}

//Personal.AI order the ending
