package euclid

// DefenseState is the readiness level that gates per-record classification.
type DefenseState int

const (
	Safe DefenseState = iota
	DefenseActive
	DefenseCooldown
)

func (s DefenseState) String() string {
	switch s {
	case Safe:
		return "SAFE"
	case DefenseActive:
		return "DEFENSE_ACTIVE"
	case DefenseCooldown:
		return "DEFENSE_COOLDOWN"
	default:
		return "UNKNOWN"
	}
}

// Next returns the state that follows s after a window with the given verdict.
// A cooldown needs one clean window before the system is safe again.
func (s DefenseState) Next(anomalous bool) DefenseState {
	switch s {
	case Safe:
		if anomalous {
			return DefenseActive
		}
		return Safe
	case DefenseActive:
		if anomalous {
			return DefenseActive
		}
		return DefenseCooldown
	case DefenseCooldown:
		if anomalous {
			return DefenseActive
		}
		return Safe
	default:
		return s
	}
}

// DefenseStateMachine holds the current DefenseState, starting at Safe.
type DefenseStateMachine struct {
	state DefenseState
}

func (m *DefenseStateMachine) State() DefenseState {
	return m.state
}

// Step applies one window verdict and returns the states before and after.
func (m *DefenseStateMachine) Step(anomalous bool) (from, to DefenseState) {
	from = m.state
	m.state = m.state.Next(anomalous)
	return from, m.state
}
