package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTable() map[string][]Transition {
	return map[string][]Transition{
		"Draft": {{ToStatus: "Submitted", Label: "Submit", Kind: KindForward}},
		"Submitted": {
			{ToStatus: "Approved", Label: "Approve", Kind: KindForward},
			{ToStatus: "Draft", Label: "Return to edit", Kind: KindReturn},
		},
		"Approved": {},
	}
}

func TestStateMachine_GetAllowedTransitions(t *testing.T) {
	sm := NewStateMachine(testTable())

	assert.Len(t, sm.GetAllowedTransitions("Submitted"), 2)
	assert.Empty(t, sm.GetAllowedTransitions("Approved"))
	assert.NotNil(t, sm.GetAllowedTransitions("Unknown"))
	assert.Equal(t, KindReturn, sm.GetAllowedTransitions("Submitted")[1].Kind)
}

func TestStateMachine_TableIsCopied(t *testing.T) {
	table := testTable()
	sm := NewStateMachine(table)
	table["Draft"][0].ToStatus = "Tampered"

	got := sm.GetAllowedTransitions("Draft")
	got[0].Label = "changed"

	assert.Equal(t, "Submitted", sm.GetAllowedTransitions("Draft")[0].ToStatus)
	assert.Equal(t, "Submit", sm.GetAllowedTransitions("Draft")[0].Label)
}
