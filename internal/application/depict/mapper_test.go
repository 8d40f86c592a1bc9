package depict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Depict/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Depict/internal/domain/reaction"
	"github.com/turtacn/KeyIP-Depict/pkg/errors"
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

func TestToMolecule(t *testing.T) {
	m, err := ToMolecule(chiralAlcoholDTO(), "molecule")
	require.NoError(t, err)

	assert.Equal(t, 4, m.AtomCount())
	assert.Equal(t, 6, m.Atom(0).AtomicNumber)
	assert.Equal(t, "Cl", m.Atom(2).Symbol)
	assert.Equal(t, molecule.OrderSingle, m.Bond(0).Order)
	require.Len(t, m.Stereo, 1)
	assert.Equal(t, molecule.KindTetrahedral, m.Stereo[0].Kind())
	assert.Equal(t, []int{0, 1, 2, 3}, m.Stereo[0].Carriers())
}

func TestToMolecule_IsotopeSymbols(t *testing.T) {
	m, err := ToMolecule(&dto.MoleculeDTO{Atoms: []dto.AtomDTO{{Symbol: "D"}, {AtomicNumber: 6, Symbol: "X"}}}, "molecule")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Atom(0).AtomicNumber)
	assert.Equal(t, 2, m.Atom(0).MassNumber)
	assert.Equal(t, 6, m.Atom(1).AtomicNumber)
}

func TestToMolecule_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.MoleculeDTO)
		detail string
	}{
		{"unknown symbol", func(d *dto.MoleculeDTO) { d.Atoms[1].Symbol = "Xx" }, "molecule.atoms[1]"},
		{"atomic number out of range", func(d *dto.MoleculeDTO) { d.Atoms[1].AtomicNumber = 200 }, "molecule.atoms[1]"},
		{"negative hydrogens", func(d *dto.MoleculeDTO) { d.Atoms[3].ImplicitH = -2 }, "molecule.atoms[3]"},
		{"bond out of range", func(d *dto.MoleculeDTO) { d.Bonds[0].End = 9 }, "molecule.bonds[0]"},
		{"self loop", func(d *dto.MoleculeDTO) { d.Bonds[0].End = 0 }, "molecule.bonds[0]"},
		{"duplicate bond", func(d *dto.MoleculeDTO) { d.Bonds[1] = dto.BondDTO{Begin: 1, End: 0} }, "molecule.bonds[1]"},
		{"unknown order", func(d *dto.MoleculeDTO) { d.Bonds[2].Order = "aromatic" }, "molecule.bonds[2]"},
		{"unknown display", func(d *dto.MoleculeDTO) { d.Bonds[2].Display = "squiggle" }, "molecule.bonds[2]"},
		{"unknown stereo kind", func(d *dto.MoleculeDTO) { d.Stereo[0].Kind = "helical" }, "molecule.stereo[0]"},
		{"carrier count", func(d *dto.MoleculeDTO) { d.Stereo[0].Carriers = []int{1, 2, 3} }, "molecule.stereo[0]"},
		{"detached carrier", func(d *dto.MoleculeDTO) { d.Stereo[0].Focus = 1 }, "molecule"},
		{"unknown sgroup", func(d *dto.MoleculeDTO) { d.Sgroups = []dto.SgroupDTO{{Type: "polymer"}} }, "molecule.sgroups[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := chiralAlcoholDTO()
			tt.mutate(d)
			_, err := ToMolecule(d, "molecule")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidGraph))
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestToReaction(t *testing.T) {
	d := butylamineDTO()
	d.Arrow = "ret"
	r, err := ToReaction(d)
	require.NoError(t, err)

	assert.Len(t, r.Reactants, 2)
	assert.Len(t, r.Agents, 1)
	assert.Len(t, r.Products, 1)
	assert.Equal(t, reaction.DirectionRetroSynthetic, r.Direction)
	assert.Len(t, r.Products[0].Sgroups, 1)

	d.Products[0].Bonds[0].Begin = 42
	_, err = ToReaction(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "products[0].bonds[0]")
}

func TestFromMolecule_RoundTrip(t *testing.T) {
	in := cobaltNitroDTO()
	in.Sgroups = []dto.SgroupDTO{{Type: "abbreviation", Subscript: "NO2", Atoms: []int{1, 2, 3}, Bonds: []int{0}}}
	m, err := ToMolecule(in, "molecule")
	require.NoError(t, err)
	m.Bond(0).Display = molecule.DisplayArrowBegin

	out := FromMolecule(m)
	assert.Equal(t, "Co", out.Atoms[0].Symbol)
	assert.Equal(t, 27, out.Atoms[0].AtomicNumber)
	assert.Equal(t, "arrow_begin", out.Bonds[0].Display)
	assert.Empty(t, out.Bonds[1].Display)
	assert.Equal(t, "double", out.Bonds[2].Order)
	require.Len(t, out.Sgroups, 1)
	assert.Equal(t, "NO2", out.Sgroups[0].Subscript)

	back, err := ToMolecule(&out, "molecule")
	require.NoError(t, err)
	assert.Equal(t, molecule.DisplayArrowBegin, back.Bond(0).Display)
}

func TestFromReaction(t *testing.T) {
	r, err := ToReaction(butylamineDTO())
	require.NoError(t, err)

	out := FromReaction(r)
	assert.Len(t, out.Reactants, 2)
	assert.Len(t, out.Agents, 1)
	assert.Len(t, out.Products, 1)
	assert.Equal(t, "forward", out.Arrow)

	marks := FromMarks([]reaction.AtomMark{{Role: reaction.RoleProduct, Mol: 0, Atom: 4, Group: 2}})
	assert.Equal(t, []dto.AtomHighlight{{Role: "product", Mol: 0, Atom: 4, Group: 2}}, marks)
	assert.Nil(t, FromMarks(nil))
}

//Personal.AI order the ending
