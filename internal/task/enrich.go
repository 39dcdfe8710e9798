package task

import (
	"context"
	"time"

	"github.com/taskdeck/taskdeck/internal/user"
)

// OwnerRef is the display shape of a task's owner.
type OwnerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Enriched is the read-model shape of a task: ids resolved to display names.
// AssignedMembers holds names in the same order the member ids are stored.
type Enriched struct {
	ID              string     `json:"id"`
	Owner           OwnerRef   `json:"owner"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Tag             string     `json:"tag,omitempty"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	Status          string     `json:"status"`
	AssignedMembers []string   `json:"assignedMembers"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Enricher joins tasks against the user directory after they are fetched,
// keeping persistence and display concerns apart.
type Enricher struct {
	names *user.NameCache
}

func NewEnricher(names *user.NameCache) *Enricher {
	return &Enricher{names: names}
}

// Enrich resolves the owner and each assigned member to a name. A referenced
// user that no longer exists falls back to its raw id rather than failing the
// whole listing.
func (e *Enricher) Enrich(ctx context.Context, t *Task) (*Enriched, error) {
	ownerName, ok, err := e.names.Name(ctx, t.OwnerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		ownerName = t.OwnerID
	}

	memberNames := make([]string, len(t.AssignedMemberIDs))
	for i, id := range t.AssignedMemberIDs {
		name, ok, err := e.names.Name(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			name = id
		}
		memberNames[i] = name
	}

	return &Enriched{
		ID:              t.ID,
		Owner:           OwnerRef{ID: t.OwnerID, Name: ownerName},
		Title:           t.Title,
		Description:     t.Description,
		Tag:             t.Tag,
		DueDate:         t.DueDate,
		Status:          t.Status,
		AssignedMembers: memberNames,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}, nil
}
