package statistic

import "math"

// Selection picks one of the three tables owned by a WindowedSketchManager.
type Selection int

const (
	Safe Selection = iota
	Running
	Last
)

func (s Selection) String() string {
	switch s {
	case Safe:
		return "SAFE"
	case Running:
		return "RUNNING"
	case Last:
		return "LAST"
	default:
		return "UNKNOWN"
	}
}

// WindowedSketchManager keeps the running window, the last completed window and
// the last window observed while the system was safe.
//
// Tables are never cleared. A cell is rotated on its first touch in a new
// window: LAST is propagated to SAFE (when the system is safe), RUNNING is
// moved to LAST, and RUNNING restarts at zero.
type WindowedSketchManager struct {
	hashes      *HashFamily
	tables      [3]*SketchTable
	window      uint32
	entropyNorm float64
	rotations   uint64
}

// NewWindowedSketchManager creates the three tables and their shared hash family.
func NewWindowedSketchManager(depth, width uint32, seed uint64) *WindowedSketchManager {
	m := &WindowedSketchManager{hashes: NewHashFamily(depth, width, seed)}
	for i := range m.tables {
		m.tables[i] = NewSketchTable(depth, width)
	}
	return m
}

// Table returns the selected table.
func (m *WindowedSketchManager) Table(which Selection) *SketchTable {
	return m.tables[which]
}

// Hashes returns the shared hash family.
func (m *WindowedSketchManager) Hashes() *HashFamily {
	return m.hashes
}

// Window returns the id of the last window passed to Update.
func (m *WindowedSketchManager) Window() uint32 {
	return m.window
}

// Rotations returns how many cell rotations have happened so far.
func (m *WindowedSketchManager) Rotations() uint64 {
	return m.rotations
}

// Update counts one occurrence of address in window and folds the new running
// estimate into the entropy norm. safe tells whether the system is currently
// in the SAFE defense state.
func (m *WindowedSketchManager) Update(address uint32, window uint32, safe bool) {
	m.window = window
	running := m.tables[Running]
	last := m.tables[Last]
	safeTable := m.tables[Safe]

	for i := 0; i < m.hashes.Depth(); i++ {
		col := m.hashes.Bucket(i, address)
		cell := running.Cell(i, col)
		if cell.Window != window {
			lastCell := last.Cell(i, col)
			if window > 1 && safe {
				*safeTable.Cell(i, col) = *lastCell
			}
			*lastCell = *cell
			*cell = Cell{Count: 0, Window: window}
			m.rotations++
		}
		cell.Count += m.hashes.Sign(i, address)
	}

	f := running.EstimateAt(address, m.hashes, window)
	if f > 1 {
		m.entropyNorm += entropyDelta(float64(f))
	}
}

// Estimate returns the frequency estimate of address in the selected table.
// RUNNING only reflects the current window.
func (m *WindowedSketchManager) Estimate(address uint32, which Selection) int64 {
	if which == Running {
		return m.tables[Running].EstimateAt(address, m.hashes, m.window)
	}
	return m.tables[which].Estimate(address, m.hashes)
}

// Variation returns how far the address moved from its last clean baseline.
func (m *WindowedSketchManager) Variation(address uint32) float64 {
	return float64(m.Estimate(address, Last) - m.Estimate(address, Safe))
}

// EntropyNorm returns the sum of f*log2(f) accumulated in the current window.
func (m *WindowedSketchManager) EntropyNorm() float64 {
	return m.entropyNorm
}

// ResetEntropyNorm clears the accumulator at a window boundary.
func (m *WindowedSketchManager) ResetEntropyNorm() {
	m.entropyNorm = 0
}

// entropyDelta is f*log2(f) - (f-1)*log2(f-1), valid for f > 1.
func entropyDelta(f float64) float64 {
	return f*math.Log2(f) - (f-1)*math.Log2(f-1)
}

// WindowEntropy converts an accumulated entropy norm into the normalized
// entropy of a window of size records.
func WindowEntropy(entropyNorm float64, size uint64) float64 {
	n := float64(size)
	return math.Log2(n) - entropyNorm/n
}
