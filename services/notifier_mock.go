package services

import (
	"sync"

	"github.com/lupita-crafts/lupitas-crafts-api/models"
)

// MockNotifier is a recording implementation of Notifier for testing
type MockNotifier struct {
	events []TransitionEvent
	err    error
	mu     sync.RWMutex
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// SetAsMockForTesting sets this mock as the global notifier instance for testing
func (m *MockNotifier) SetAsMockForTesting() {
	SetNotifier(m)
}

// FailWith makes every subsequent Notify call return err
func (m *MockNotifier) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Notify records the event instead of persisting a notification
func (m *MockNotifier) Notify(event TransitionEvent) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	m.events = append(m.events, event)
	return &models.Notification{
		Audience: event.Audience,
		Type:     event.Type,
		OrderID:  event.Order.ID,
		Message:  event.Message,
	}, nil
}

// Events returns a copy of all recorded events (for testing assertions)
func (m *MockNotifier) Events() []TransitionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]TransitionEvent, len(m.events))
	copy(events, m.events)
	return events
}

// EventsOfType returns recorded events matching the given notification type
func (m *MockNotifier) EventsOfType(notificationType string) []TransitionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []TransitionEvent
	for _, e := range m.events {
		if e.Type == notificationType {
			matched = append(matched, e)
		}
	}
	return matched
}

// Clear removes all recorded events
func (m *MockNotifier) Clear() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}
