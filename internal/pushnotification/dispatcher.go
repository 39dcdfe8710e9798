package pushnotification

import (
	"context"
	"log/slog"

	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/internal/user"
)

// Dispatcher turns task lifecycle events into webpush notifications for the
// assigned members. It is decoupled from the request path via the event bus.
type Dispatcher struct {
	eventBus *eventbus.Bus
	taskRepo task.Repository
	names    *user.NameCache
	sender   *Sender
}

func NewDispatcher(eventBus *eventbus.Bus, taskRepo task.Repository, names *user.NameCache, sender *Sender) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		taskRepo: taskRepo,
		names:    names,
		sender:   sender,
	}
}

// Start consumes events until ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("push notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("push notification dispatcher stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type == eventbus.EventTypeTaskCreated {
				d.handleTaskCreated(ctx, event)
			}
		}
	}
}

func (d *Dispatcher) handleTaskCreated(ctx context.Context, event *eventbus.Event) {
	t, err := d.taskRepo.Get(ctx, event.TaskID)
	if err != nil {
		slog.Error("push dispatcher: failed to get task", "id", event.TaskID, "error", err)
		return
	}
	if len(t.AssignedMemberIDs) == 0 {
		return
	}

	ownerName, ok, err := d.names.Name(ctx, t.OwnerID)
	if err != nil || !ok {
		ownerName = t.OwnerID
	}

	// The owner just created the task; notify members only.
	members := make([]string, 0, len(t.AssignedMemberIDs))
	for _, id := range t.AssignedMemberIDs {
		if id != t.OwnerID {
			members = append(members, id)
		}
	}
	if len(members) == 0 {
		return
	}

	d.sender.SendToUsers(ctx, members, &NotificationPayload{
		Title: "New task assigned",
		Body:  ownerName + " assigned you: " + t.Title,
		URL:   "/tasks/" + t.ID,
		Tag:   t.ID,
	})
}
