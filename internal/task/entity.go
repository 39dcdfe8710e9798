package task

import "time"

// DefaultStatus is the status a task is created with. Status is free-form
// caller data afterwards; there is no enforced transition graph.
const DefaultStatus = "pending"

// Task is the persisted shape. OwnerID is fixed at creation and never
// reassigned. AssignedMemberIDs is established at creation exactly as given
// (order preserved, duplicates preserved) and no operation mutates it later.
type Task struct {
	ID                string     `yaml:"id"`
	OwnerID           string     `yaml:"owner_id"`
	Title             string     `yaml:"title"`
	Description       string     `yaml:"description"`
	Tag               string     `yaml:"tag,omitempty"`
	DueDate           *time.Time `yaml:"due_date,omitempty"`
	Status            string     `yaml:"status"`
	AssignedMemberIDs []string   `yaml:"assigned_member_ids"`
	CreatedAt         time.Time  `yaml:"created_at"`
	UpdatedAt         time.Time  `yaml:"updated_at"`
}

// VisibleTo reports whether userID may see this task: the owner and every
// assigned member may.
func (t *Task) VisibleTo(userID string) bool {
	if t.OwnerID == userID {
		return true
	}
	return t.AssignedTo(userID)
}

// AssignedTo reports whether userID is one of the assigned members. Note that
// assignment, not ownership, is what authorizes deletion.
func (t *Task) AssignedTo(userID string) bool {
	for _, id := range t.AssignedMemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
