// Package diagnoser scores a classifier against the ground truth labels of a dataset.
package diagnoser

import "Go2NetEuclid/internal/model"

// Diagnoser accumulates confusion counts over observed records.
type Diagnoser struct {
	total, trueMalicious, classifiedMalicious uint64
	tp, fp, fn, tn                            uint64
}

// New creates an empty Diagnoser.
func New() *Diagnoser {
	return &Diagnoser{}
}

// Observe counts rec. It must be called after the classifier processed rec.
func (d *Diagnoser) Observe(rec *model.FlowRecord) {
	d.total++
	truth, verdict := rec.IsOriginalMalicious(), rec.IsClassifiedMalicious()
	if truth {
		d.trueMalicious++
	}
	if verdict {
		d.classifiedMalicious++
	}

	switch {
	case truth && verdict:
		d.tp++
	case !truth && verdict:
		d.fp++
	case truth && !verdict:
		d.fn++
	default:
		d.tn++
	}
}

// Report returns the counts and derived rates. Undefined rates are 0.
func (d *Diagnoser) Report() model.Summary {
	s := model.Summary{
		TotalEntries:        d.total,
		TrueMalicious:       d.trueMalicious,
		ClassifiedMalicious: d.classifiedMalicious,
		TruePositives:       d.tp,
		FalsePositives:      d.fp,
		FalseNegatives:      d.fn,
		TrueNegatives:       d.tn,
		Precision:           ratio(d.tp, d.tp+d.fp),
		Recall:              ratio(d.tp, d.tp+d.fn),
		FalsePositiveRate:   ratio(d.fp, d.fp+d.tn),
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	return s
}

// Reset clears all counts.
func (d *Diagnoser) Reset() {
	*d = Diagnoser{}
}

func ratio(num, den uint64) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
