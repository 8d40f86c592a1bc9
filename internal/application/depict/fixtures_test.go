package depict

import (
	dto "github.com/turtacn/KeyIP-Depict/pkg/types/depict"
)

// cobaltNitroDTO is [Co][N+]([O-])=O.
func cobaltNitroDTO() *dto.MoleculeDTO {
	return &dto.MoleculeDTO{
		Atoms: []dto.AtomDTO{
			{Symbol: "Co"},
			{Symbol: "N", Charge: 1},
			{Symbol: "O", Charge: -1},
			{Symbol: "O"},
		},
		Bonds: []dto.BondDTO{
			{Begin: 0, End: 1, Order: "single"},
			{Begin: 1, End: 2, Order: "single"},
			{Begin: 1, End: 3, Order: "double"},
		},
	}
}

// chiralAlcoholDTO is [C@@H](F)(Cl)O with the hydrogen held implicitly.
func chiralAlcoholDTO() *dto.MoleculeDTO {
	return &dto.MoleculeDTO{
		Atoms: []dto.AtomDTO{
			{Symbol: "C", ImplicitH: 1},
			{Symbol: "F"},
			{Symbol: "Cl"},
			{Symbol: "O", ImplicitH: 1},
		},
		Bonds: []dto.BondDTO{
			{Begin: 0, End: 1, Order: "single"},
			{Begin: 0, End: 2, Order: "single"},
			{Begin: 0, End: 3, Order: "single"},
		},
		Stereo: []dto.StereoDTO{
			{Kind: "tetrahedral", Focus: 0, Carriers: []int{0, 1, 2, 3}, Config: 2},
		},
	}
}

type mappedAtom struct {
	symbol    string
	implicitH int
	mapIdx    int
}

func chainDTO(atoms ...mappedAtom) dto.MoleculeDTO {
	m := dto.MoleculeDTO{}
	for i, a := range atoms {
		m.Atoms = append(m.Atoms, dto.AtomDTO{Symbol: a.symbol, ImplicitH: a.implicitH, MapIdx: a.mapIdx})
		if i > 0 {
			m.Bonds = append(m.Bonds, dto.BondDTO{Begin: i - 1, End: i, Order: "single"})
		}
	}
	return m
}

// butylamineDTO is the N-methylation of n-butylamine with the product butyl
// drawn as nBu.
func butylamineDTO() *dto.ReactionDTO {
	product := chainDTO(
		mappedAtom{"C", 3, 21}, mappedAtom{"C", 2, 22}, mappedAtom{"C", 2, 23}, mappedAtom{"C", 2, 24},
		mappedAtom{"N", 1, 25}, mappedAtom{"C", 3, 18})
	product.Sgroups = []dto.SgroupDTO{{Type: "abbreviation", Subscript: "nBu", Atoms: []int{0, 1, 2, 3}, Bonds: []int{3}}}

	return &dto.ReactionDTO{
		Reactants: []dto.MoleculeDTO{
			chainDTO(mappedAtom{"C", 3, 21}, mappedAtom{"C", 2, 22}, mappedAtom{"C", 2, 23}, mappedAtom{"C", 2, 24}, mappedAtom{"N", 2, 25}),
			chainDTO(mappedAtom{"Br", 0, 0}, mappedAtom{"C", 3, 18}),
		},
		Agents:   []dto.MoleculeDTO{chainDTO(mappedAtom{"C", 3, 0}, mappedAtom{"C", 2, 0}, mappedAtom{"O", 1, 0})},
		Products: []dto.MoleculeDTO{product},
	}
}

func boolPtr(b bool) *bool { return &b }

//Personal.AI order the ending
