package node

import (
	"encoding/json"
	"fmt"
	"time"

	"communityprojects/internal/engine"

	"github.com/google/uuid"
)

// Envelope is the wire form of a committed engine event. ID is unique per
// event so consumers can drop redeliveries.
type Envelope struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	ProjectID engine.ProjectID   `json:"project_id"`
	Height    engine.BlockNumber `json:"height"`
	Payload   json.RawMessage    `json:"payload"`
	Emitted   time.Time          `json:"emitted_at"`
}

// NewEnvelope wraps a record for publishing
func NewEnvelope(r engine.Record) (Envelope, error) {
	payload, err := json.Marshal(r.Event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", r.Event.EventName(), err)
	}
	return Envelope{
		ID:        uuid.NewString(),
		Name:      r.Event.EventName(),
		ProjectID: r.Event.Project(),
		Height:    r.Height,
		Payload:   payload,
		Emitted:   time.Now().UTC(),
	}, nil
}

// Event decodes the payload back into its engine event
func (e Envelope) Event() (engine.Event, error) {
	return engine.DecodeEvent(e.Name, e.Payload)
}
