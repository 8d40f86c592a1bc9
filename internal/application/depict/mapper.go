package depict

import (
	"fmt"

	"github.com/turtacn/KeyIP-Depict/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Depict/internal/domain/reaction"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// ─────────────────────────────────────────────────────────────────────────────
// DTO -> domain
// ─────────────────────────────────────────────────────────────────────────────

func invalidAt(path, msg string) error {
	return errors.InvalidGraph(msg).WithDetail(path)
}

// atPath prefixes the detail of a domain validation error with the location
// of the molecule inside the request.
func atPath(err error, path string) error {
	if ae, ok := err.(*errors.AppError); ok {
		if ae.Detail == "" {
			return ae.WithDetail(path)
		}
		return ae.WithDetail(path + ": " + ae.Detail)
	}
	return errors.Wrap(err, errors.ErrCodeInvalidGraph, "invalid molecule").WithDetail(path)
}

// ToMolecule builds a validated molecular graph.  path names the molecule in
// error details ("molecule", "reactants[1]").
func ToMolecule(d *dto.MoleculeDTO, path string) (*molecule.Molecule, error) {
	m := molecule.New()
	m.Title = d.Title

	for i, a := range d.Atoms {
		z := a.AtomicNumber
		mass := a.Mass
		if z == 0 {
			var ok bool
			if z, ok = molecule.AtomicNumberOf(a.Symbol); !ok {
				return nil, invalidAt(fmt.Sprintf("%s.atoms[%d]", path, i), fmt.Sprintf("unknown element symbol %q", a.Symbol))
			}
			switch {
			case a.Symbol == "D" && mass == 0:
				mass = 2
			case a.Symbol == "T" && mass == 0:
				mass = 3
			}
		}
		if z < 0 || (z > 0 && molecule.SymbolOf(z) == "*") {
			return nil, invalidAt(fmt.Sprintf("%s.atoms[%d]", path, i), fmt.Sprintf("atomic number %d out of range", z))
		}
		if a.ImplicitH < 0 {
			return nil, invalidAt(fmt.Sprintf("%s.atoms[%d]", path, i), "negative implicit hydrogen count")
		}
		m.AddAtom(molecule.Atom{
			AtomicNumber: z,
			Charge:       a.Charge,
			ImplicitH:    a.ImplicitH,
			MassNumber:   mass,
			Aromatic:     a.Aromatic,
			MapIdx:       a.MapIdx,
			Radicals:     a.Radicals,
		})
	}

	for i, b := range d.Bonds {
		where := fmt.Sprintf("%s.bonds[%d]", path, i)
		if !m.HasAtom(b.Begin) || !m.HasAtom(b.End) {
			return nil, invalidAt(where, fmt.Sprintf("bond %d-%d references an unknown atom", b.Begin, b.End))
		}
		if b.Begin == b.End {
			return nil, invalidAt(where, "bond joins an atom to itself")
		}
		if m.BondBetween(b.Begin, b.End) >= 0 {
			return nil, invalidAt(where, "duplicate bond")
		}
		order := molecule.OrderSingle
		if b.Order != "" {
			var ok bool
			if order, ok = molecule.ParseOrder(b.Order); !ok {
				return nil, invalidAt(where, fmt.Sprintf("unknown bond order %q", b.Order))
			}
		}
		idx := m.AddBond(b.Begin, b.End, order)
		if b.Display != "" {
			disp, ok := molecule.ParseDisplay(b.Display)
			if !ok {
				return nil, invalidAt(where, fmt.Sprintf("unknown bond display %q", b.Display))
			}
			m.Bond(idx).Display = disp
		}
		m.Bond(idx).InRing = b.InRing
	}

	for i, s := range d.Stereo {
		where := fmt.Sprintf("%s.stereo[%d]", path, i)
		kind, ok := molecule.ParseStereoKind(s.Kind)
		if !ok {
			return nil, invalidAt(where, fmt.Sprintf("unknown stereo kind %q", s.Kind))
		}
		e, err := molecule.NewStereo(kind, s.Focus, s.Carriers, s.Config, s.Group)
		if err != nil {
			return nil, atPath(err, where)
		}
		m.Stereo = append(m.Stereo, e)
	}

	for i, s := range d.Sgroups {
		typ, ok := molecule.ParseSgroupType(s.Type)
		if !ok {
			return nil, invalidAt(fmt.Sprintf("%s.sgroups[%d]", path, i), fmt.Sprintf("unknown s-group type %q", s.Type))
		}
		m.Sgroups = append(m.Sgroups, &molecule.Sgroup{
			Type:        typ,
			Subscript:   s.Subscript,
			Atoms:       append([]int(nil), s.Atoms...),
			Bonds:       append([]int(nil), s.Bonds...),
			ParentAtoms: append([]int(nil), s.ParentAtoms...),
		})
	}

	if err := m.Validate(); err != nil {
		return nil, atPath(err, path)
	}
	return m, nil
}

// ToReaction builds every component of a reaction.
func ToReaction(d *dto.ReactionDTO) (*reaction.Reaction, error) {
	r := &reaction.Reaction{
		Title:     d.Title,
		Direction: reaction.ParseArrow(d.Arrow),
	}
	sides := []struct {
		name string
		in   []dto.MoleculeDTO
		out  *[]*molecule.Molecule
	}{
		{"reactants", d.Reactants, &r.Reactants},
		{"products", d.Products, &r.Products},
		{"agents", d.Agents, &r.Agents},
	}
	for _, side := range sides {
		for i := range side.in {
			m, err := ToMolecule(&side.in[i], fmt.Sprintf("%s[%d]", side.name, i))
			if err != nil {
				return nil, err
			}
			*side.out = append(*side.out, m)
		}
	}
	return r, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// domain -> DTO
// ─────────────────────────────────────────────────────────────────────────────

// FromMolecule renders a molecule for the wire.
func FromMolecule(m *molecule.Molecule) dto.MoleculeDTO {
	out := dto.MoleculeDTO{
		Title: m.Title,
		Atoms: make([]dto.AtomDTO, m.AtomCount()),
		Bonds: make([]dto.BondDTO, m.BondCount()),
	}
	for i := range out.Atoms {
		a := m.Atom(i)
		out.Atoms[i] = dto.AtomDTO{
			Symbol:       a.Symbol,
			AtomicNumber: a.AtomicNumber,
			Charge:       a.Charge,
			ImplicitH:    a.ImplicitH,
			Mass:         a.MassNumber,
			Aromatic:     a.Aromatic,
			MapIdx:       a.MapIdx,
			Radicals:     a.Radicals,
		}
	}
	for i := range out.Bonds {
		b := m.Bond(i)
		bd := dto.BondDTO{
			Begin:  b.Begin,
			End:    b.End,
			Order:  b.Order.String(),
			InRing: b.InRing,
		}
		if b.Display != molecule.DisplaySolid {
			bd.Display = b.Display.String()
		}
		out.Bonds[i] = bd
	}
	for _, e := range m.Stereo {
		out.Stereo = append(out.Stereo, dto.StereoDTO{
			Kind:     e.Kind().String(),
			Focus:    e.Focus(),
			Carriers: e.Carriers(),
			Config:   e.Config(),
			Group:    e.Group(),
		})
	}
	for _, sg := range m.Sgroups {
		out.Sgroups = append(out.Sgroups, dto.SgroupDTO{
			Type:        sg.Type.String(),
			Subscript:   sg.Subscript,
			Atoms:       append([]int(nil), sg.Atoms...),
			Bonds:       append([]int(nil), sg.Bonds...),
			ParentAtoms: append([]int(nil), sg.ParentAtoms...),
		})
	}
	return out
}

// FromReaction renders a reaction for the wire.
func FromReaction(r *reaction.Reaction) dto.ReactionDTO {
	out := dto.ReactionDTO{
		Title:     r.Title,
		Reactants: []dto.MoleculeDTO{},
		Products:  []dto.MoleculeDTO{},
		Arrow:     r.Direction.String(),
	}
	r.Each(func(role reaction.Role, _ int, m *molecule.Molecule) {
		switch role {
		case reaction.RoleReactant:
			out.Reactants = append(out.Reactants, FromMolecule(m))
		case reaction.RoleProduct:
			out.Products = append(out.Products, FromMolecule(m))
		case reaction.RoleAgent:
			out.Agents = append(out.Agents, FromMolecule(m))
		}
	})
	return out
}

// FromMarks renders changed-atom marks.
func FromMarks(marks []reaction.AtomMark) []dto.AtomHighlight {
	if len(marks) == 0 {
		return nil
	}
	out := make([]dto.AtomHighlight, len(marks))
	for i, mk := range marks {
		out[i] = dto.AtomHighlight{Role: mk.Role.String(), Mol: mk.Mol, Atom: mk.Atom, Group: mk.Group}
	}
	return out
}

//Personal.AI order the ending
