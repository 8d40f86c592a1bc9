package molecule

import "strings"

// SgroupType tags the kind of collapsed-label annotation.
type SgroupType int

const (
	SgroupAbbreviation SgroupType = iota + 1
	SgroupMultiple
	SgroupGeneric
)

func (t SgroupType) String() string {
	switch t {
	case SgroupAbbreviation:
		return "abbreviation"
	case SgroupMultiple:
		return "multiple"
	case SgroupGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// ParseSgroupType resolves a type name as returned by String.  "sup" and
// "superatom" are accepted for abbreviations and "mul" for multiple groups.
func ParseSgroupType(s string) (SgroupType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abbreviation", "sup", "superatom":
		return SgroupAbbreviation, true
	case "multiple", "mul":
		return SgroupMultiple, true
	case "generic", "gen":
		return SgroupGeneric, true
	default:
		return 0, false
	}
}

// Sgroup groups atoms and bonds drawn as one label.  Bonds may be internal
// or crossing; a crossing bond has exactly one endpoint among Atoms.
type Sgroup struct {
	Type      SgroupType
	Subscript string
	Atoms     []int
	Bonds     []int
	// ParentAtoms is the repeat unit of a multiple group.
	ParentAtoms []int
}

// HasAtom reports whether atom is a member.
func (s *Sgroup) HasAtom(atom int) bool {
	for _, a := range s.Atoms {
		if a == atom {
			return true
		}
	}
	return false
}

// HasBond reports whether bond is a member.
func (s *Sgroup) HasBond(bond int) bool {
	for _, b := range s.Bonds {
		if b == bond {
			return true
		}
	}
	return false
}

// AddAtom adds atom unless it is already a member.
func (s *Sgroup) AddAtom(atom int) {
	if !s.HasAtom(atom) {
		s.Atoms = append(s.Atoms, atom)
	}
}

// AddBond adds bond unless it is already a member.
func (s *Sgroup) AddBond(bond int) {
	if !s.HasBond(bond) {
		s.Bonds = append(s.Bonds, bond)
	}
}

// Clone returns a deep copy.
func (s *Sgroup) Clone() *Sgroup {
	return &Sgroup{
		Type:        s.Type,
		Subscript:   s.Subscript,
		Atoms:       append([]int(nil), s.Atoms...),
		Bonds:       append([]int(nil), s.Bonds...),
		ParentAtoms: append([]int(nil), s.ParentAtoms...),
	}
}

// AbbreviationOf returns the first abbreviation s-group containing atom.
func (m *Molecule) AbbreviationOf(atom int) *Sgroup {
	for _, sg := range m.Sgroups {
		if sg.Type == SgroupAbbreviation && sg.HasAtom(atom) {
			return sg
		}
	}
	return nil
}

//Personal.AI order the ending
