package molecule

// Element symbols indexed by atomic number.  Index 0 is the pseudo atom "*".
var elementSymbols = [...]string{
	"*",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd",
	"In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba", "La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy",
	"Ho", "Er", "Tm", "Yb", "Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt",
	"Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
	"Fr", "Ra", "Ac", "Th", "Pa", "U", "Np", "Pu", "Am", "Cm", "Bk", "Cf",
	"Es", "Fm", "Md", "No", "Lr", "Rf", "Db", "Sg", "Bh", "Hs", "Mt", "Ds",
	"Rg", "Cn", "Nh", "Fl", "Mc", "Lv", "Ts", "Og",
}

// Atomic numbers used by the perception rules.
const (
	elemH = 1
	elemB = 5
	elemC = 6
	elemN = 7
	elemO = 8
	elemP = 15
)

var symbolIndex = func() map[string]int {
	idx := make(map[string]int, len(elementSymbols))
	for z, s := range elementSymbols {
		idx[s] = z
	}
	return idx
}()

// non-metals and metalloids; every other element is a metal.
var nonMetals = map[int]bool{
	1: true, 2: true, 5: true, 6: true, 7: true, 8: true, 9: true, 10: true,
	14: true, 15: true, 16: true, 17: true, 18: true,
	32: true, 33: true, 34: true, 35: true, 36: true,
	51: true, 52: true, 53: true, 54: true,
	85: true, 86: true, 117: true, 118: true,
}

// SymbolOf returns the element symbol for an atomic number, or "*" when the
// number is outside the periodic table.
func SymbolOf(z int) string {
	if z <= 0 || z >= len(elementSymbols) {
		return "*"
	}
	return elementSymbols[z]
}

// AtomicNumberOf resolves an element symbol.  D and T resolve to hydrogen.
func AtomicNumberOf(symbol string) (int, bool) {
	switch symbol {
	case "D", "T":
		return elemH, true
	}
	z, ok := symbolIndex[symbol]
	return z, ok
}

// IsMetal reports whether the atomic number belongs to a metal.
func IsMetal(z int) bool {
	return z > 0 && z < len(elementSymbols) && !nonMetals[z]
}

//Personal.AI order the ending
