package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseUpdated EventType = "expense.updated"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent announces a change to one stored expense. Consumers load the
// expense itself from the database.
type ExpenseEvent struct {
	EventID   string    `json:"event_id"`
	Type      EventType `json:"type"`
	ExpenseID int64     `json:"expense_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

var ErrInvalidEvent = errors.New("invalid expense event")

func NewExpenseEvent(eventType EventType, expenseID, userID int64) ExpenseEvent {
	return ExpenseEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		ExpenseID: expenseID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

func (e ExpenseEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	switch e.Type {
	case EventExpenseCreated, EventExpenseUpdated, EventExpenseDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.ExpenseID <= 0 {
		return fmt.Errorf("%w: expense id %d", ErrInvalidEvent, e.ExpenseID)
	}
	return nil
}

func (e ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON decodes and validates a message body.
func ExpenseEventFromJSON(data []byte) (ExpenseEvent, error) {
	var e ExpenseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return ExpenseEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return ExpenseEvent{}, err
	}
	return e, nil
}
