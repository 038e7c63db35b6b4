package schedule

// ValidationError reports an input that prevents a run from starting.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	// ErrNoSites is returned when the site list is empty.
	ErrNoSites = &ValidationError{Reason: "no sites to schedule"}
	// ErrNoTasks is returned when the task catalog is empty.
	ErrNoTasks = &ValidationError{Reason: "no tasks to schedule"}
)
