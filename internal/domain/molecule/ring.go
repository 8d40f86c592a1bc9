package molecule

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// PerceiveRings sets Bond.InRing on every bond that lies on a cycle.  A bond
// is cyclic when its endpoints stay connected after the bond is removed.
func PerceiveRings(m *Molecule) {
	g := simple.NewUndirectedGraph()
	for i := range m.atoms {
		g.AddNode(simple.Node(int64(i)))
	}
	for j := range m.bonds {
		b := &m.bonds[j]
		b.InRing = false
		if g.HasEdgeBetween(int64(b.Begin), int64(b.End)) {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(int64(b.Begin)), simple.Node(int64(b.End))))
	}

	for j := range m.bonds {
		b := &m.bonds[j]
		// terminal atoms are never cyclic
		if len(m.adj[b.Begin]) < 2 || len(m.adj[b.End]) < 2 {
			continue
		}
		u, v := simple.Node(int64(b.Begin)), simple.Node(int64(b.End))
		g.RemoveEdge(u.ID(), v.ID())
		b.InRing = topo.PathExistsIn(g, u, v)
		g.SetEdge(g.NewEdge(u, v))
	}
}

// RingBondCount returns the number of ring bonds incident to atom i.  Ring
// flags must have been perceived first.
func RingBondCount(m *Molecule, i int) int {
	n := 0
	for _, b := range m.adj[i] {
		if m.bonds[b].InRing {
			n++
		}
	}
	return n
}

//Personal.AI order the ending
