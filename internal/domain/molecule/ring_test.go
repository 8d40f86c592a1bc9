package molecule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerceiveRings(t *testing.T) {
	// methylcyclohexane: ring 0-5, methyl 6 on atom 0
	atoms := make([]Atom, 7)
	for i := range atoms {
		atoms[i] = atom(6, 0, 2)
	}
	m := build(t, atoms, []bondSpec{
		{0, 1, OrderSingle}, {1, 2, OrderSingle}, {2, 3, OrderSingle},
		{3, 4, OrderSingle}, {4, 5, OrderSingle}, {5, 0, OrderSingle},
		{0, 6, OrderSingle},
	})

	PerceiveRings(m)

	for i := 0; i < 6; i++ {
		assert.True(t, m.Bond(i).InRing, "bond %d", i)
	}
	assert.False(t, m.Bond(6).InRing)
	assert.Equal(t, 2, RingBondCount(m, 0))
	assert.Equal(t, 0, RingBondCount(m, 6))
}

func TestPerceiveRings_Biphenyl(t *testing.T) {
	atoms := make([]Atom, 12)
	for i := range atoms {
		atoms[i] = atom(6, 0, 1)
	}
	var bonds []bondSpec
	for r := 0; r < 2; r++ {
		base := r * 6
		for i := 0; i < 6; i++ {
			bonds = append(bonds, bondSpec{base + i, base + (i+1)%6, OrderSingle})
		}
	}
	bonds = append(bonds, bondSpec{0, 6, OrderSingle})
	m := build(t, atoms, bonds)

	PerceiveRings(m)

	assert.False(t, m.Bond(12).InRing, "the biaryl bond is a bridge")
	assert.True(t, m.Bond(0).InRing)
	assert.True(t, m.Bond(11).InRing)
}

func TestPerceiveRings_ResetsStaleFlags(t *testing.T) {
	m := build(t, []Atom{atom(6, 0, 3), atom(6, 0, 3)}, []bondSpec{{0, 1, OrderSingle}})
	m.Bond(0).InRing = true
	PerceiveRings(m)
	assert.False(t, m.Bond(0).InRing)
}

//Personal.AI order the ending
