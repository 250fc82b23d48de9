package workflows

// TransitionKind separates forward hand-offs from return-to-edit actions
type TransitionKind string

const (
	KindForward TransitionKind = "forward"
	KindReturn  TransitionKind = "return"
)

// Transition is one action offered from a status
type Transition struct {
	ToStatus string         `json:"toStatus"`
	Label    string         `json:"label"`
	Kind     TransitionKind `json:"kind"`
}

// StateMachine holds the allowed transitions keyed by status (or step id)
type StateMachine struct {
	allowedTransitions map[string][]Transition
}

// NewStateMachine creates a state machine from a transition table.
// The table is copied so callers cannot mutate it afterwards.
func NewStateMachine(table map[string][]Transition) *StateMachine {
	allowed := make(map[string][]Transition, len(table))
	for from, transitions := range table {
		allowed[from] = append([]Transition{}, transitions...)
	}
	return &StateMachine{allowedTransitions: allowed}
}

// GetAllowedTransitions returns the transitions offered from a status.
// Unknown and terminal statuses both yield an empty slice.
func (sm *StateMachine) GetAllowedTransitions(from string) []Transition {
	allowed, exists := sm.allowedTransitions[from]
	if !exists {
		return []Transition{}
	}
	return append([]Transition{}, allowed...)
}
