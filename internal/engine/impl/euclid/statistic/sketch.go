package statistic

import "slices"

// Cell is a signed counter tagged with the window that last wrote it.
type Cell struct {
	Count  int64
	Window uint32
}

// SketchTable is a depth x width count sketch.
type SketchTable struct {
	depth, width int
	cells        []Cell
	estimates    []int64
}

// NewSketchTable allocates a zeroed table. Both dimensions must be at least 1.
func NewSketchTable(depth, width uint32) *SketchTable {
	return &SketchTable{
		depth:     int(depth),
		width:     int(width),
		cells:     make([]Cell, int(depth)*int(width)),
		estimates: make([]int64, depth),
	}
}

func (t *SketchTable) Depth() int { return t.depth }

func (t *SketchTable) Width() int { return t.width }

// Cell returns a pointer to the cell at (row, col).
func (t *SketchTable) Cell(row, col int) *Cell {
	return &t.cells[row*t.width+col]
}

// Update adds sign to the cell at (row, col). Callers rotate stale cells first.
func (t *SketchTable) Update(row, col int, sign int64) {
	t.cells[row*t.width+col].Count += sign
}

// Estimate returns the median of the signed row counts for address.
func (t *SketchTable) Estimate(address uint32, h RowHasher) int64 {
	for i := 0; i < t.depth; i++ {
		c := t.Cell(i, h.Bucket(i, address))
		t.estimates[i] = c.Count * h.Sign(i, address)
	}
	return median(t.estimates)
}

// EstimateAt is Estimate where cells last written outside window read as zero.
func (t *SketchTable) EstimateAt(address uint32, h RowHasher, window uint32) int64 {
	for i := 0; i < t.depth; i++ {
		c := t.Cell(i, h.Bucket(i, address))
		if c.Window != window {
			t.estimates[i] = 0
			continue
		}
		t.estimates[i] = c.Count * h.Sign(i, address)
	}
	return median(t.estimates)
}

// median sorts values in place and returns the lower-middle element.
func median(values []int64) int64 {
	slices.Sort(values)
	return values[(len(values)-1)/2]
}
