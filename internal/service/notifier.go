package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Notifier informs the messaging collaborator about status transitions.
// Delivery is fire-and-forget: a failed notification never rolls back the
// state change it announces.
type Notifier interface {
	Notify(ctx context.Context, event string, entityID uuid.UUID, recipients []uuid.UUID)
}

type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, event string, entityID uuid.UUID, recipients []uuid.UUID) {
	ids := make([]string, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, r.String())
	}
	n.log.Info().
		Str("event", event).
		Str("entity_id", entityID.String()).
		Strs("recipients", ids).
		Msg("notification")
}
