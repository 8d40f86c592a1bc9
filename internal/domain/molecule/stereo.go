package molecule

import (
	"strings"

	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Stereo kinds
// ─────────────────────────────────────────────────────────────────────────────

// StereoKind tags the variant of a StereoElement.
type StereoKind int

const (
	KindTetrahedral StereoKind = iota + 1
	KindCisTrans
	KindAllenal
	KindSquarePlanar
	KindTrigonalBipyramidal
	KindOctahedral
)

var stereoKindNames = map[StereoKind]string{
	KindTetrahedral:         "tetrahedral",
	KindCisTrans:            "cis_trans",
	KindAllenal:             "allenal",
	KindSquarePlanar:        "square_planar",
	KindTrigonalBipyramidal: "trigonal_bipyramidal",
	KindOctahedral:          "octahedral",
}

func (k StereoKind) String() string {
	if s, ok := stereoKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// CarrierCount is the fixed carrier list length of the variant.
func (k StereoKind) CarrierCount() int {
	switch k {
	case KindTetrahedral, KindAllenal, KindSquarePlanar:
		return 4
	case KindCisTrans:
		return 2
	case KindTrigonalBipyramidal:
		return 5
	case KindOctahedral:
		return 6
	default:
		return 0
	}
}

// ParseStereoKind resolves a kind name as returned by String.
func ParseStereoKind(s string) (StereoKind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range stereoKindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Configuration values.  Tetrahedral and Allenal use Left/Right (anticlockwise
// and clockwise looking from the first carrier), CisTrans uses
// Opposite/Together.  The higher coordination variants carry the permutation
// number of their shape (e.g. 1-3 for square planar).
const (
	ConfigLeft     = 1
	ConfigRight    = 2
	ConfigOpposite = 1
	ConfigTogether = 2
)

// ─────────────────────────────────────────────────────────────────────────────
// StereoElement
// ─────────────────────────────────────────────────────────────────────────────

// StereoElement is the closed set of stereo descriptors a molecule can carry.
// The focus is an atom index except for CisTrans, where it is the index of
// the double bond.  A centered element whose focus atom appears among its own
// carriers uses that slot for an implicit hydrogen or lone pair; an Allenal
// element does the same with the terminal atom.
type StereoElement interface {
	Kind() StereoKind
	Focus() int
	Carriers() []int
	Config() int
	Group() int

	// Remap returns a copy with every carrier found in sub replaced by its
	// image.  The focus is never changed.
	Remap(sub map[int]int) StereoElement

	reindex(atomMap, bondMap []int) (StereoElement, bool)
}

type stereoBase struct {
	focus    int
	carriers []int
	config   int
	group    int
}

func (s stereoBase) Focus() int { return s.focus }

func (s stereoBase) Carriers() []int { return append([]int(nil), s.carriers...) }

func (s stereoBase) Config() int { return s.config }

func (s stereoBase) Group() int { return s.group }

func (s stereoBase) remap(sub map[int]int) stereoBase {
	out := s
	out.carriers = make([]int, len(s.carriers))
	for i, c := range s.carriers {
		if r, ok := sub[c]; ok {
			out.carriers[i] = r
		} else {
			out.carriers[i] = c
		}
	}
	return out
}

// reindexAtoms maps the focus (when focusIsAtom) and carriers through
// atomMap.  A removed reference invalidates the element.
func (s stereoBase) reindexAtoms(atomMap []int, focusIsAtom bool) (stereoBase, bool) {
	out := s
	if focusIsAtom {
		if s.focus < 0 || s.focus >= len(atomMap) || atomMap[s.focus] < 0 {
			return out, false
		}
		out.focus = atomMap[s.focus]
	}
	out.carriers = make([]int, len(s.carriers))
	for i, c := range s.carriers {
		if c < 0 || c >= len(atomMap) || atomMap[c] < 0 {
			return out, false
		}
		out.carriers[i] = atomMap[c]
	}
	return out, true
}

// Tetrahedral describes a four-coordinate stereocentre.
type Tetrahedral struct{ stereoBase }

// CisTrans describes a stereogenic double bond.  Carriers[0] is attached to
// the bond's begin atom and Carriers[1] to its end atom.
type CisTrans struct{ stereoBase }

// Allenal describes the axial chirality of a cumulated system whose central
// atom is the focus.
type Allenal struct{ stereoBase }

// SquarePlanar describes a four-coordinate square planar centre.
type SquarePlanar struct{ stereoBase }

// TrigonalBipyramidal describes a five-coordinate centre.
type TrigonalBipyramidal struct{ stereoBase }

// Octahedral describes a six-coordinate centre.
type Octahedral struct{ stereoBase }

func (Tetrahedral) Kind() StereoKind         { return KindTetrahedral }
func (CisTrans) Kind() StereoKind            { return KindCisTrans }
func (Allenal) Kind() StereoKind             { return KindAllenal }
func (SquarePlanar) Kind() StereoKind        { return KindSquarePlanar }
func (TrigonalBipyramidal) Kind() StereoKind { return KindTrigonalBipyramidal }
func (Octahedral) Kind() StereoKind          { return KindOctahedral }

func (e Tetrahedral) Remap(sub map[int]int) StereoElement {
	return Tetrahedral{e.remap(sub)}
}

func (e CisTrans) Remap(sub map[int]int) StereoElement {
	return CisTrans{e.remap(sub)}
}

func (e Allenal) Remap(sub map[int]int) StereoElement {
	return Allenal{e.remap(sub)}
}

func (e SquarePlanar) Remap(sub map[int]int) StereoElement {
	return SquarePlanar{e.remap(sub)}
}

func (e TrigonalBipyramidal) Remap(sub map[int]int) StereoElement {
	return TrigonalBipyramidal{e.remap(sub)}
}

func (e Octahedral) Remap(sub map[int]int) StereoElement {
	return Octahedral{e.remap(sub)}
}

func (e Tetrahedral) reindex(atomMap, _ []int) (StereoElement, bool) {
	b, ok := e.reindexAtoms(atomMap, true)
	return Tetrahedral{b}, ok
}

func (e CisTrans) reindex(atomMap, bondMap []int) (StereoElement, bool) {
	b, ok := e.reindexAtoms(atomMap, false)
	if !ok || e.focus < 0 || e.focus >= len(bondMap) || bondMap[e.focus] < 0 {
		return e, false
	}
	b.focus = bondMap[e.focus]
	return CisTrans{b}, true
}

func (e Allenal) reindex(atomMap, _ []int) (StereoElement, bool) {
	b, ok := e.reindexAtoms(atomMap, true)
	return Allenal{b}, ok
}

func (e SquarePlanar) reindex(atomMap, _ []int) (StereoElement, bool) {
	b, ok := e.reindexAtoms(atomMap, true)
	return SquarePlanar{b}, ok
}

func (e TrigonalBipyramidal) reindex(atomMap, _ []int) (StereoElement, bool) {
	b, ok := e.reindexAtoms(atomMap, true)
	return TrigonalBipyramidal{b}, ok
}

func (e Octahedral) reindex(atomMap, _ []int) (StereoElement, bool) {
	b, ok := e.reindexAtoms(atomMap, true)
	return Octahedral{b}, ok
}

// ── Constructors ─────────────────────────────────────────────────────────────

// NewTetrahedral builds a tetrahedral element around focus.
func NewTetrahedral(focus int, carriers [4]int, config int) Tetrahedral {
	return Tetrahedral{stereoBase{focus: focus, carriers: carriers[:], config: config}}
}

// NewCisTrans builds a double-bond element on bond.
func NewCisTrans(bond int, carriers [2]int, config int) CisTrans {
	return CisTrans{stereoBase{focus: bond, carriers: carriers[:], config: config}}
}

// NewAllenal builds an extended tetrahedral element centred on focus.
func NewAllenal(focus int, carriers [4]int, config int) Allenal {
	return Allenal{stereoBase{focus: focus, carriers: carriers[:], config: config}}
}

// NewSquarePlanar builds a square planar element around focus.
func NewSquarePlanar(focus int, carriers [4]int, config int) SquarePlanar {
	return SquarePlanar{stereoBase{focus: focus, carriers: carriers[:], config: config}}
}

// NewTrigonalBipyramidal builds a trigonal bipyramidal element around focus.
func NewTrigonalBipyramidal(focus int, carriers [5]int, config int) TrigonalBipyramidal {
	return TrigonalBipyramidal{stereoBase{focus: focus, carriers: carriers[:], config: config}}
}

// NewOctahedral builds an octahedral element around focus.
func NewOctahedral(focus int, carriers [6]int, config int) Octahedral {
	return Octahedral{stereoBase{focus: focus, carriers: carriers[:], config: config}}
}

// NewStereo builds an element of any kind from untrusted input.  The carrier
// count must match the kind.
func NewStereo(kind StereoKind, focus int, carriers []int, config, group int) (StereoElement, error) {
	if kind.CarrierCount() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "unknown stereo kind")
	}
	if len(carriers) != kind.CarrierCount() {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "wrong carrier count for "+kind.String())
	}
	base := stereoBase{focus: focus, carriers: append([]int(nil), carriers...), config: config, group: group}
	switch kind {
	case KindTetrahedral:
		return Tetrahedral{base}, nil
	case KindCisTrans:
		return CisTrans{base}, nil
	case KindAllenal:
		return Allenal{base}, nil
	case KindSquarePlanar:
		return SquarePlanar{base}, nil
	case KindTrigonalBipyramidal:
		return TrigonalBipyramidal{base}, nil
	default:
		return Octahedral{base}, nil
	}
}

// WithGroup returns a copy of e carrying the racemic/relative group id g.
func WithGroup(e StereoElement, g int) StereoElement {
	switch v := e.(type) {
	case Tetrahedral:
		v.group = g
		return v
	case CisTrans:
		v.group = g
		return v
	case Allenal:
		v.group = g
		return v
	case SquarePlanar:
		v.group = g
		return v
	case TrigonalBipyramidal:
		v.group = g
		return v
	case Octahedral:
		v.group = g
		return v
	default:
		return e
	}
}

//Personal.AI order the ending
