package workflow

import (
	"fmt"
)

// Position is the resolved location of a version inside a step sequence
type Position struct {
	Step       Step  `json:"step"`
	Index      int   `json:"index"`
	Phase      Phase `json:"phase"`
	PhaseIndex int   `json:"phaseIndex"`
	Next       *Step `json:"next,omitempty"`
}

// StepProgress is one row of the progress list
type StepProgress struct {
	Step        Step `json:"step"`
	IsCurrent   bool `json:"isCurrent"`
	IsCompleted bool `json:"isCompleted"`
}

// PhaseProgress is one segment of the phase bar
type PhaseProgress struct {
	Phase       Phase `json:"phase"`
	IsCurrent   bool  `json:"isCurrent"`
	IsCompleted bool  `json:"isCompleted"`
}

// FindCurrentStep locates the current step. On custom routes the open task is
// matched first, loop steps through their "<step>:<office>" composite id.
// Otherwise the first step reporting the status wins, and the first step of
// the sequence is the default when nothing matches. An empty sequence yields
// a zero Position with Index -1.
func FindCurrentStep(status string, steps []Step, task *Task, custom bool) Position {
	if len(steps) == 0 {
		return Position{Index: -1, PhaseIndex: -1}
	}

	index := -1
	if custom && task != nil {
		index = matchTask(steps, task)
	}
	if index < 0 {
		for i, s := range steps {
			if s.StatusValue == status {
				index = i
				break
			}
		}
	}
	if index < 0 {
		index = 0
	}

	current := steps[index]
	pos := Position{
		Step:       current,
		Index:      index,
		Phase:      current.Phase,
		PhaseIndex: current.Phase.Index(),
	}
	if index+1 < len(steps) {
		next := steps[index+1]
		pos.Next = &next
	}
	return pos
}

func matchTask(steps []Step, task *Task) int {
	if task.Step == "" {
		return -1
	}

	target := task.Step
	if IsLoopStep(target) && task.AssignedOfficeID != nil {
		target = CompositeStepID(task.Step, *task.AssignedOfficeID)
	}
	for i, s := range steps {
		if s.ID == target {
			return i
		}
	}
	return -1
}

// Progress marks every step and phase relative to the current position
func Progress(pos Position, steps []Step) ([]StepProgress, []PhaseProgress) {
	stepRows := make([]StepProgress, len(steps))
	for i, s := range steps {
		stepRows[i] = StepProgress{
			Step:        s,
			IsCurrent:   i == pos.Index,
			IsCompleted: i < pos.Index,
		}
	}

	phases := Phases()
	phaseRows := make([]PhaseProgress, len(phases))
	for i, p := range phases {
		phaseRows[i] = PhaseProgress{
			Phase:       p,
			IsCurrent:   i == pos.PhaseIndex,
			IsCompleted: i < pos.PhaseIndex,
		}
	}
	return stepRows, phaseRows
}

// String is used in log fields
func (p Position) String() string {
	return fmt.Sprintf("%s[%d] phase=%s", p.Step.ID, p.Index, p.Phase)
}
