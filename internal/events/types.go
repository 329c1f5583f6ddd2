// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	// Order lifecycle
	OrderPlaced   EventType = "ORDER_PLACED"
	OrderAccepted EventType = "ORDER_ACCEPTED"
	OrderRejected EventType = "ORDER_REJECTED"

	// Catalogue and accounts
	ProductCreated EventType = "PRODUCT_CREATED"
	UserRegistered EventType = "USER_REGISTERED"

	// Maintenance
	BackupCompleted EventType = "BACKUP_COMPLETED"
	ActivityPruned  EventType = "ACTIVITY_PRUNED"
	ErrorOccurred   EventType = "ERROR_OCCURRED"
)

// Event represents a system event. Data is the JSON object form of the typed EventData.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
