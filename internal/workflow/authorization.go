package workflow

import (
	"docroute/portal-backend/internal/offices"
)

// CanAct reports whether the acting office holds the task
func CanAct(task *Task, actingOfficeID *offices.OfficeID) bool {
	return task != nil &&
		task.AssignedOfficeID != nil &&
		actingOfficeID != nil &&
		*task.AssignedOfficeID == *actingOfficeID
}

// CurrentTask returns the open task with the lowest id together with the
// number of open tasks. More than one open task is a data problem the caller
// should log. It returns nil when no task is open.
func CurrentTask(tasks []Task) (*Task, int) {
	var current *Task
	open := 0
	for i := range tasks {
		if tasks[i].Status != TaskOpen {
			continue
		}
		open++
		if current == nil || tasks[i].ID < current.ID {
			t := tasks[i]
			current = &t
		}
	}
	return current, open
}
