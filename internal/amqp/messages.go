package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"ledger/internal/core"

	"github.com/google/uuid"
)

// RefreshRequest asks a worker to refresh one collection from the remote
// store. It carries no record data; the worker refetches everything.
type RefreshRequest struct {
	ID         uuid.UUID       `json:"id"`
	Collection core.Collection `json:"collection"`
	Reason     string          `json:"reason,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewRefreshRequest creates a request with a fresh id
func NewRefreshRequest(coll core.Collection, reason string) *RefreshRequest {
	return &RefreshRequest{
		ID:         uuid.New(),
		Collection: coll,
		Reason:     reason,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRequestFromJSON decodes a request and checks its collection.
func RefreshRequestFromJSON(data []byte) (*RefreshRequest, error) {
	var msg RefreshRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Collection.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCollection, msg.Collection)
	}
	return &msg, nil
}
