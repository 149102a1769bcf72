package dispatch

import (
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"

	"github.com/fulldump/recordlist/recordlist"
)

const (
	ActionCreate = "create"
	ActionDelete = "delete"
)

type Action struct {
	Type      string         `json:"type"`
	Uuid      string         `json:"uuid"`
	Timestamp int64          `json:"timestamp"`
	Payload   jsontext.Value `json:"payload"`
}

// CreatePayload carries the new record fields. ID is only set when a
// recorded create is dispatched again; the store assigns it otherwise.
type CreatePayload struct {
	ID     string            `json:"id,omitempty"`
	Fields map[string]string `json:"fields"`
}

type DeletePayload struct {
	ID string `json:"id"`
}

func NewCreateAction(fields recordlist.Fields) (*Action, error) {
	return newAction(ActionCreate, &CreatePayload{Fields: fields})
}

func NewDeleteAction(id string) (*Action, error) {
	return newAction(ActionDelete, &DeletePayload{ID: id})
}

func newAction(actionType string, payload interface{}) (*Action, error) {
	encoded, err := json.Marshal(payload, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("json encode payload: %w", err)
	}

	return &Action{
		Type:      actionType,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		Payload:   encoded,
	}, nil
}
