package journal

import (
	"github.com/go-json-experiment/json/jsontext"
)

const (
	CommandInsert = "insert"
	CommandPatch  = "patch"
	CommandRemove = "remove"
)

// Command is one line of the journal.
type Command struct {
	Name      string         `json:"name"`
	Uuid      string         `json:"uuid"`
	Timestamp int64          `json:"timestamp"`
	Payload   jsontext.Value `json:"payload"`
}

type PatchPayload struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

type RemovePayload struct {
	ID string `json:"id"`
}
