package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// OrderData describes an order at the moment an order event fires. The event type is
// derived from Status.
type OrderData struct {
	OrderID     int64  `json:"order_id"`
	Reference   string `json:"reference"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	ConsumerID  int64  `json:"consumer_id"`
	FarmerID    int64  `json:"farmer_id"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
}

// EventType maps the order status onto its lifecycle event
func (d *OrderData) EventType() EventType {
	switch d.Status {
	case "Accepted":
		return OrderAccepted
	case "Rejected":
		return OrderRejected
	default:
		return OrderPlaced
	}
}

// ProductCreatedData contains data for ProductCreated events
type ProductCreatedData struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	FarmerID  int64   `json:"farmer_id"`
}

// EventType returns the event type for ProductCreatedData
func (d *ProductCreatedData) EventType() EventType {
	return ProductCreated
}

// UserRegisteredData contains data for UserRegistered events
type UserRegisteredData struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// EventType returns the event type for UserRegisteredData
func (d *UserRegisteredData) EventType() EventType {
	return UserRegistered
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key      string  `json:"key"`
	Bytes    int64   `json:"bytes"`
	Checksum string  `json:"checksum"`
	Duration float64 `json:"duration_seconds"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ActivityPrunedData contains data for ActivityPruned events
type ActivityPrunedData struct {
	Deleted int64     `json:"deleted"`
	Before  time.Time `json:"before"`
}

// EventType returns the event type for ActivityPrunedData
func (d *ActivityPrunedData) EventType() EventType {
	return ActivityPruned
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// GetTypedData converts the Data map back into its typed form. Unknown types yield nil.
func (e *Event) GetTypedData() EventData {
	if e.Data == nil {
		return nil
	}

	var data EventData
	switch e.Type {
	case OrderPlaced, OrderAccepted, OrderRejected:
		data = &OrderData{}
	case ProductCreated:
		data = &ProductCreatedData{}
	case UserRegistered:
		data = &UserRegisteredData{}
	case BackupCompleted:
		data = &BackupCompletedData{}
	case ActivityPruned:
		data = &ActivityPrunedData{}
	case ErrorOccurred:
		data = &ErrorEventData{}
	default:
		return nil
	}

	if err := convertMapToStruct(e.Data, data); err != nil {
		return nil
	}
	return data
}

func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}

func convertEventDataToMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}
	return result
}
