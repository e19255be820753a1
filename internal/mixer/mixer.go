// Package mixer builds labelled datasets out of a legitimate and a malicious
// record source.
//
// For a detection size n the output is laid out as:
//
//	n/2 training records (legitimate)
//	n/4 pre-attack records (legitimate)
//	n/2 attack records, each malicious with probability p
//	n/4 post-attack records (legitimate)
package mixer

import (
	"Go2NetEuclid/internal/model"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
)

// ErrNotEnoughRecords is returned when an input runs out before the dataset is complete.
var ErrNotEnoughRecords = errors.New("not enough records in input dataset")

// Options controls a mix.
type Options struct {
	DetectionSize uint64
	// Percentage is the probability of an attack phase record being malicious.
	Percentage float64
	Seed       uint64
}

// Layout is the number of records in each phase.
type Layout struct {
	Training, PreAttack, Attack, PostAttack uint64
}

// LayoutFor returns the phase sizes for a detection size n.
func LayoutFor(n uint64) Layout {
	return Layout{Training: n / 2, PreAttack: n / 4, Attack: n / 2, PostAttack: n / 4}
}

// Total returns the size of the mixed dataset.
func (l Layout) Total() uint64 {
	return l.Training + l.PreAttack + l.Attack + l.PostAttack
}

// AttackStart returns the offset of the first attack phase record.
func (l Layout) AttackStart() uint64 {
	return l.Training + l.PreAttack
}

// Mix draws the dataset from legit and malicious. Malicious records are
// copied with their Original bit set; inputs are never modified.
func Mix(legit, malicious model.RecordSource, opts Options) ([]model.FlowRecord, error) {
	p := opts.Percentage
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, fmt.Errorf("percentage %v out of range (0-1.0)", p)
	}

	layout := LayoutFor(opts.DetectionSize)
	expectedMalicious := uint64(float64(layout.Attack) * p)
	if layout.Total()-expectedMalicious > legit.EntryCount() {
		return nil, fmt.Errorf("%w: legitimate dataset has %d entries, need about %d",
			ErrNotEnoughRecords, legit.EntryCount(), layout.Total()-expectedMalicious)
	}
	if expectedMalicious > malicious.EntryCount() {
		return nil, fmt.Errorf("%w: malicious dataset has %d entries, need about %d",
			ErrNotEnoughRecords, malicious.EntryCount(), expectedMalicious)
	}

	legit.Reset()
	malicious.Reset()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x2545f4914f6cdd1d))
	mixed := make([]model.FlowRecord, 0, layout.Total())

	take := func(src model.RecordSource, name string) (model.FlowRecord, error) {
		rec, ok := src.Next()
		if !ok {
			return model.FlowRecord{}, fmt.Errorf("%w: %s dataset exhausted after %d output records", ErrNotEnoughRecords, name, len(mixed))
		}
		return *rec, nil
	}

	log.Println("Adding training and pre-attack phase data...")
	for i := uint64(0); i < layout.Training+layout.PreAttack; i++ {
		rec, err := take(legit, "legitimate")
		if err != nil {
			return nil, err
		}
		mixed = append(mixed, rec)
	}

	log.Println("Adding attack phase data...")
	for i := uint64(0); i < layout.Attack; i++ {
		var rec model.FlowRecord
		var err error
		if rng.Float64() < p {
			rec, err = take(malicious, "malicious")
			rec.MarkOriginalMalicious()
		} else {
			rec, err = take(legit, "legitimate")
		}
		if err != nil {
			return nil, err
		}
		mixed = append(mixed, rec)
	}

	log.Println("Adding post-attack phase data...")
	for i := uint64(0); i < layout.PostAttack; i++ {
		rec, err := take(legit, "legitimate")
		if err != nil {
			return nil, err
		}
		mixed = append(mixed, rec)
	}

	log.Printf("Gathered %d entries for the output dataset", len(mixed))
	return mixed, nil
}
