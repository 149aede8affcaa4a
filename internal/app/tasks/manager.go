// Package tasks coordinates the cancellable units of work wrapping every
// fetch/populate operation.
package tasks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/miguelbaldi/kafka-browser/internal/domain"
	"github.com/miguelbaldi/kafka-browser/pkg/logger"
	"github.com/miguelbaldi/kafka-browser/pkg/metrics"
)

// EventType classifies task lifecycle events delivered to the presentation
// layer.
type EventType string

const (
	EventProgress  EventType = "Progress"
	EventDone      EventType = "Done"
	EventCancelled EventType = "Cancelled"
)

// Event is one task lifecycle notification. Progress is a fraction in
// [0, 1].
type Event struct {
	Type     EventType
	Task     domain.Task
	Progress float64
}

// Manager creates tasks, owns their cancellation signals and publishes their
// lifecycle events. Cancellation is cooperative: operations receive the
// task's context and must race it against every blocking step.
type Manager struct {
	logger logger.Logger
	events chan Event

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewManager creates a task manager.
func NewManager(log logger.Logger) *Manager {
	return &Manager{
		logger: log,
		events: make(chan Event, 64),
		active: make(map[string]context.CancelFunc),
	}
}

// Events delivers task lifecycle notifications. Consumed by the presentation
// layer; the engine never blocks on it.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Start registers a new task and returns it together with the context the
// operation must run under.
func (m *Manager) Start(parent context.Context, variant domain.TaskVariant, name string) (domain.Task, context.Context) {
	task := domain.Task{
		ID:      uuid.NewString(),
		Variant: variant,
		Name:    name,
	}

	ctx, cancel := context.WithCancel(parent)
	m.mu.Lock()
	m.active[task.ID] = cancel
	m.mu.Unlock()

	m.logger.Debug("task started", "taskID", task.ID, "variant", task.Variant, "name", task.Name)
	return task, ctx
}

// Cancel signals the task's cancellation token. Returns false when the task
// is no longer active.
func (m *Manager) Cancel(taskID string) bool {
	m.mu.Lock()
	cancel, ok := m.active[taskID]
	m.mu.Unlock()
	if !ok {
		return false
	}

	m.logger.Info("task cancelled", "taskID", taskID)
	cancel()
	return true
}

// Progress publishes a progress fraction for a running task.
func (m *Manager) Progress(task domain.Task, fraction float64) {
	m.publish(Event{Type: EventProgress, Task: task, Progress: fraction})
}

// Finish removes the task and publishes its terminal event. Cancellation is
// a normal outcome, not a failure.
func (m *Manager) Finish(task domain.Task, cancelled bool) {
	m.mu.Lock()
	cancel, ok := m.active[task.ID]
	delete(m.active, task.ID)
	m.mu.Unlock()
	if ok {
		cancel()
	}

	if cancelled {
		metrics.TasksCancelled.WithLabelValues(string(task.Variant)).Inc()
		m.publish(Event{Type: EventCancelled, Task: task})
		return
	}
	m.publish(Event{Type: EventDone, Task: task, Progress: 1.0})
}

// publish never blocks; when the consumer lags, events are dropped rather
// than stalling a fetch loop.
func (m *Manager) publish(event Event) {
	select {
	case m.events <- event:
	default:
		m.logger.Debug("dropping task event", "taskID", event.Task.ID, "type", event.Type)
	}
}
