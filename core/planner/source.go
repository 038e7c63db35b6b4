package planner

import (
	"context"
	"errors"

	"github.com/kilianp07/mineplan/core/model"
)

// ErrSiteNotFound is returned when a toggle names an unknown site.
var ErrSiteNotFound = errors.New("site not found")

// Source provides the plan a run works from and owns site state.
type Source interface {
	// Load returns a snapshot of sites, tasks, constants and shifts.
	Load(ctx context.Context) (model.Plan, error)
	// ToggleSite flips the active flag of the site matching id, compared
	// case-insensitively, and returns the updated site.
	ToggleSite(ctx context.Context, id string) (model.Site, error)
}
