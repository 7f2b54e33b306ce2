package ws

import (
	"encoding/json"
	"time"
)

// StatusNotifier pushes application status transitions to subscribed
// clients. It is invoked synchronously from the status-change path and
// never blocks it.
type StatusNotifier struct {
	hub *Hub
}

func NewStatusNotifier(hub *Hub) *StatusNotifier {
	return &StatusNotifier{hub: hub}
}

func StatusTopic(applicationID string) string {
	return "application:status:" + applicationID
}

func (n *StatusNotifier) NotifyStatusChanged(applicationID, status string) {
	payload, _ := json.Marshal(map[string]any{
		"event": "status_changed",
		"data": map[string]any{
			"application_id": applicationID,
			"status":         status,
			"changed_at":     time.Now().UTC().Format(time.RFC3339),
		},
	})
	n.hub.Publish(StatusTopic(applicationID), payload)
}
