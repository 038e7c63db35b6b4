package mqtt

import (
	"context"

	"github.com/kilianp07/mineplan/core/history"
)

// Publisher pushes generated schedules to downstream consumers such as
// dispatch boards and fleet displays.
type Publisher interface {
	// PublishSchedule sends rec on the configured schedule topic.
	PublishSchedule(ctx context.Context, rec *history.Record) error

	// Disconnect releases the connection.
	Disconnect()
}
