package mq

// Routing keys for task lifecycle events.
const (
	RoutingKeyTaskCreated = "task.created"
	RoutingKeyTaskUpdated = "task.updated"
	RoutingKeyTaskDeleted = "task.deleted"
)

type TaskEventPayload struct {
	TaskID    int    `json:"task_id"`
	OwnerID   int    `json:"owner_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}
