package rotation

// State is the step a rotation run is executing
type State int

const (
	StateIdle State = iota
	StateArchiving
	StatePromoting
	StateRecoveryRebuild
	StateRebuilding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArchiving:
		return "archiving"
	case StatePromoting:
		return "promoting"
	case StateRecoveryRebuild:
		return "recovery_rebuild"
	case StateRebuilding:
		return "rebuilding"
	default:
		return "unknown"
	}
}

// Outcome is the result of executing the action of a state
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Action is the side effect the runner performs on entering a state
type Action int

const (
	ActionNone Action = iota
	ActionArchive
	ActionPromote
	ActionRebuildCurrentDay
	ActionRebuildTomorrow
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionArchive:
		return "archive"
	case ActionPromote:
		return "promote"
	case ActionRebuildCurrentDay:
		return "rebuild_current_day"
	case ActionRebuildTomorrow:
		return "rebuild_tomorrow"
	default:
		return "unknown"
	}
}

// Transition returns the next state and its action given the outcome of the
// current state. A run starts by calling Transition(StateIdle, OutcomeDone)
// and ends when the returned state is StateIdle.
//
// Archiving never blocks promotion. Only a failed or skipped promotion enters
// the recovery branch, and the tomorrow rebuild always runs last.
func Transition(s State, o Outcome) (State, Action) {
	switch s {
	case StateIdle:
		return StateArchiving, ActionArchive
	case StateArchiving:
		return StatePromoting, ActionPromote
	case StatePromoting:
		if o == OutcomeDone {
			return StateRebuilding, ActionRebuildTomorrow
		}
		return StateRecoveryRebuild, ActionRebuildCurrentDay
	case StateRecoveryRebuild:
		return StateRebuilding, ActionRebuildTomorrow
	default:
		return StateIdle, ActionNone
	}
}
