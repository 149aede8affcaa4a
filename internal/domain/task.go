package domain

// TaskVariant names the kind of long-running operation a task wraps.
type TaskVariant string

const (
	TaskGetMessages  TaskVariant = "GetMessages"
	TaskCacheTopic   TaskVariant = "CacheTopic"
	TaskCleanupCache TaskVariant = "CleanupCache"
)

// Task is the ephemeral identity of one cancellable fetch/populate operation.
// It lives only for the duration of the operation and is destroyed on
// completion or cancellation acknowledgement. The cancellation signal itself
// is owned by the task coordinator.
type Task struct {
	ID      string
	Variant TaskVariant
	Name    string
}
