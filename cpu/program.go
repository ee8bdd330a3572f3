package cpu

// Line is an assembled source line that emitted a word.
type Line struct {
	LineNo  int    // Source line number, starting at 1.
	Address int    // Memory address of the emitted word.
	Text    string // Source text.
	Word    string // Canonical word emitted.
}

// Program is an assembled memory image.
type Program struct {
	Words   []string // Memory image, indexed by address.
	Listing []Line   // Source lines, in address order.
}

// Debug is the source of a memory address.
type Debug struct {
	*Line
}

// Debug finds the source line that emitted the word at address. The Line
// is nil for addresses not written by the program.
func (prog *Program) Debug(address int) (dbg Debug) {
	for n, line := range prog.Listing {
		if line.Address == address {
			dbg = Debug{
				Line: &prog.Listing[n],
			}
			break
		}
	}

	return
}

// LineNo returns the source line number of an address, or 0 if unknown.
func (prog *Program) LineNo(address int) int {
	dbg := prog.Debug(address)
	if dbg.Line == nil {
		return 0
	}
	return dbg.LineNo
}
