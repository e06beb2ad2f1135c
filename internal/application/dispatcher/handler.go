package dispatcher

import (
	"context"

	"github.com/garyjia/expense-approvals/internal/domain/event"
)

// Handler reacts to one expense lifecycle event after its transaction has
// committed. An error is logged and never undoes the transition.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo is a subscription: the handler, its name in logs and the
// lifecycle event type it listens to
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
