package events

import "github.com/wri/terramatch-workflow/internal/store/model"

// StatusUpdateEvent is the analytics signal emitted for every processed status change.
type StatusUpdateEvent struct {
	UUID   string           `json:"uuid"`
	Type   model.EntityType `json:"type"`
	Status model.Status     `json:"status"`
}
