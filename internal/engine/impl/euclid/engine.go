package euclid

import (
	"Go2NetEuclid/internal/config"
	"Go2NetEuclid/internal/engine/impl/euclid/statistic"
	"Go2NetEuclid/internal/factory"
	"Go2NetEuclid/internal/model"
	"log"
	"math/rand/v2"
)

// Name is the registered name of the EUCLID classifier.
const Name = "EUCLID"

// --- Factory Registration ---

func init() {
	factory.RegisterClassifier(Name, func(def config.ClassifierDef) (model.Classifier, error) {
		params := def.Parameters
		var seed uint64
		if params.Seed != nil {
			seed = *params.Seed
		} else {
			seed = rand.Uint64()
			log.Printf("Warning: no seed configured for classifier '%s', using random seed %d", def.Name, seed)
		}

		engine, err := New(params, seed)
		if err != nil {
			return nil, err
		}
		log.Printf("Creating EUCLID engine with:\n\tsensitivity %.3f, smoothing %.3f\n\tobservation window %d, defense threshold %.2f\n\tcount sketch depth %d, width %d, seed %d\n",
			params.Sensitivity, params.Smoothing, params.ObservationWindowSize, params.DefenseThreshold,
			params.CountSketchDepth, params.CountSketchWidth, seed)
		return engine, nil
	})
}

// --- Engine Implementation ---

// Engine is the EUCLID detection engine. It keeps one windowed sketch and one
// anomaly detector per address direction and a single defense state machine.
// An Engine is not safe for concurrent use.
type Engine struct {
	windowSize       uint64
	defenseThreshold float64
	seed             uint64

	src, dst                 *statistic.WindowedSketchManager
	srcDetector, dstDetector *statistic.AnomalyDetector
	defense                  DefenseStateMachine

	// window starts at 1, the warm-up window.
	window   uint32
	inWindow uint64
	marked   uint64
}

// New validates params and builds an engine. Both directions share seed so
// that a replay with the same seed is reproducible.
func New(params config.EuclidParams, seed uint64) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	depth, width := params.CountSketchDepth, params.CountSketchWidth
	return &Engine{
		windowSize:       params.ObservationWindowSize,
		defenseThreshold: params.DefenseThreshold,
		seed:             seed,
		src:              statistic.NewWindowedSketchManager(depth, width, seed),
		dst:              statistic.NewWindowedSketchManager(depth, width, seed),
		srcDetector:      statistic.NewAnomalyDetector(statistic.Rising, params.Sensitivity, params.Smoothing),
		dstDetector:      statistic.NewAnomalyDetector(statistic.Falling, params.Sensitivity, params.Smoothing),
		window:           1,
	}, nil
}

// Name returns the registered classifier name.
func (e *Engine) Name() string {
	return Name
}

// Ingest updates both sketches with rec and, while a defense is armed, marks
// rec when its frequency variation exceeds the defense threshold.
// It returns true when rec completes the current window; the caller must
// then call OnWindowBoundary before ingesting more records.
func (e *Engine) Ingest(rec *model.FlowRecord) bool {
	safe := e.defense.State() == Safe
	e.src.Update(rec.SrcAddr, e.window, safe)
	e.dst.Update(rec.DstAddr, e.window, safe)

	if !safe && e.FrequencyVariation(rec) > e.defenseThreshold {
		rec.MarkClassifiedMalicious()
		e.marked++
	}

	e.inWindow++
	return e.inWindow >= e.windowSize
}

// FrequencyVariation is the destination variation minus the source variation of rec.
func (e *Engine) FrequencyVariation(rec *model.FlowRecord) float64 {
	return e.dst.Variation(rec.DstAddr) - e.src.Variation(rec.SrcAddr)
}

// OnWindowBoundary reads out both entropies, evaluates the detectors, steps
// the defense state machine and starts the next window.
func (e *Engine) OnWindowBoundary() model.WindowReport {
	srcEntropy := statistic.WindowEntropy(e.src.EntropyNorm(), e.windowSize)
	dstEntropy := statistic.WindowEntropy(e.dst.EntropyNorm(), e.windowSize)

	warmup := !e.srcDetector.Seeded()
	srcThreshold, dstThreshold := e.srcDetector.Threshold(), e.dstDetector.Threshold()

	srcAnomalous := e.srcDetector.Observe(srcEntropy)
	dstAnomalous := e.dstDetector.Observe(dstEntropy)
	anomalous := srcAnomalous || dstAnomalous

	if warmup {
		srcThreshold, dstThreshold = e.srcDetector.Threshold(), e.dstDetector.Threshold()
	}

	from, to := e.defense.Step(anomalous)

	report := model.WindowReport{
		WindowID:     e.window,
		Warmup:       warmup,
		SrcEntropy:   srcEntropy,
		DstEntropy:   dstEntropy,
		SrcThreshold: srcThreshold,
		DstThreshold: dstThreshold,
		SrcAnomalous: srcAnomalous,
		DstAnomalous: dstAnomalous,
		Anomalous:    anomalous,
		PrevState:    from.String(),
		State:        to.String(),
		Records:      e.inWindow,
		Marked:       e.marked,
	}
	report.SrcEWMA, report.SrcEWMMD = e.srcDetector.Baseline()
	report.DstEWMA, report.DstEWMMD = e.dstDetector.Baseline()

	e.src.ResetEntropyNorm()
	e.dst.ResetEntropyNorm()
	e.window++
	e.inWindow = 0
	e.marked = 0

	return report
}

// Process ingests rec and closes the window when rec completes it.
// The report is only meaningful when the second return value is true.
func (e *Engine) Process(rec *model.FlowRecord) (model.WindowReport, bool) {
	if !e.Ingest(rec) {
		return model.WindowReport{}, false
	}
	return e.OnWindowBoundary(), true
}

// TrainingSize reserves the first half of a dataset for warming up.
func (e *Engine) TrainingSize(datasetSize uint64) uint64 {
	return datasetSize / 2
}

// State returns the current defense state.
func (e *Engine) State() DefenseState {
	return e.defense.State()
}

// Window returns the id of the window currently being filled.
func (e *Engine) Window() uint32 {
	return e.window
}

// Seed returns the seed the hash families were built from.
func (e *Engine) Seed() uint64 {
	return e.seed
}

// Sketches returns the source and destination sketch managers.
func (e *Engine) Sketches() (src, dst *statistic.WindowedSketchManager) {
	return e.src, e.dst
}

// Detectors returns the source and destination anomaly detectors.
func (e *Engine) Detectors() (src, dst *statistic.AnomalyDetector) {
	return e.srcDetector, e.dstDetector
}
