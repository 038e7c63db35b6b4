package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/mineplan/core/history"
	coremqtt "github.com/kilianp07/mineplan/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// MockPublisher records published schedules in memory. It is used by tests
// and by the CLI when no broker is configured.
type MockPublisher struct {
	mu        sync.Mutex
	Published []string
	Fail      bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// PublishSchedule records the schedule ID or fails when configured to.
func (m *MockPublisher) PublishSchedule(_ context.Context, rec *history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Published = append(m.Published, rec.ID)
	return nil
}

// IDs returns a copy of the published schedule IDs.
func (m *MockPublisher) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Published...)
}

// Disconnect is a no-op.
func (m *MockPublisher) Disconnect() {}
