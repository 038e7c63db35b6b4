package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/mineplan/core/model"
	"github.com/kilianp07/mineplan/core/schedule"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("schedule not found")

// DefaultPageLimit is the page size used when none is requested.
const DefaultPageLimit = 10

// Record is one generated schedule together with the inputs that shaped it.
type Record struct {
	ID                    string              `json:"scheduleId"`
	GeneratedAt           time.Time           `json:"generatedAt"`
	GeneratedBy           string              `json:"generatedBy,omitempty"`
	Notes                 string              `json:"notes,omitempty"`
	DelayedSlots          []model.DelayedSlot `json:"delayedSlots"`
	AllDelays             []model.DelayedSlot `json:"allDelays"`
	ShiftChangeoverDelays []model.DelayedSlot `json:"shiftChangeoverDelays"`
	Shifts                []model.Shift       `json:"shifts"`
	Result                *schedule.Result    `json:"result"`
}

// NewRecord stamps res with a fresh identifier and the current time.
func NewRecord(res *schedule.Result) Record {
	return Record{ID: uuid.NewString(), GeneratedAt: time.Now().UTC(), Result: res}
}

// Summary is the light view returned by List.
type Summary struct {
	ID          string    `json:"scheduleId"`
	GeneratedAt time.Time `json:"generatedAt"`
	GeneratedBy string    `json:"generatedBy,omitempty"`
	GridHours   int       `json:"gridHours"`
}

// Summarize returns the list view of r.
func (r Record) Summarize() Summary {
	s := Summary{ID: r.ID, GeneratedAt: r.GeneratedAt, GeneratedBy: r.GeneratedBy}
	if r.Result != nil {
		s.GridHours = r.Result.GridHours
	}
	return s
}

// Page selects a slice of the history. Page numbers start at 1.
type Page struct {
	Limit int
	Page  int
}

// Normalize applies the defaults to non-positive values.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Page <= 0 {
		p.Page = 1
	}
	return p
}

// Offset returns the number of records to skip.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// Pages returns how many pages total records span.
func (p Page) Pages(total int) int {
	p = p.Normalize()
	return (total + p.Limit - 1) / p.Limit
}

// Store persists generated schedules. Listings are newest first.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Latest(ctx context.Context) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, p Page) ([]Summary, int, error)
	Close() error
}
