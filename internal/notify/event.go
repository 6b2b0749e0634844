// Package notify delivers request decision events to users, best effort and
// decoupled from the transaction that produced them.
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"finflow-requests/internal/domain"
)

// Event describes a terminal transition of a financial request.
type Event struct {
	UserID     int64                `json:"user_id"`
	RequestID  uuid.UUID            `json:"request_id"`
	Kind       domain.RequestKind   `json:"kind"`
	Status     domain.RequestStatus `json:"status"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// NewEvent builds the event for a decided request.
func NewEvent(req *domain.FinancialRequest) Event {
	at := time.Now().UTC()
	if req.DecidedAt != nil {
		at = *req.DecidedAt
	}
	return Event{
		UserID:     req.UserID,
		RequestID:  req.ID,
		Kind:       req.Kind,
		Status:     req.Status,
		OccurredAt: at,
	}
}

// Name is the event name pushed to clients, e.g. "deposit.approved".
func (e Event) Name() string {
	return strings.ToLower(string(e.Kind)) + "." + strings.ToLower(string(e.Status))
}

// Emitter pushes a named event with a JSON payload to one user.
type Emitter interface {
	Notify(ctx context.Context, userID int64, event string, payload []byte) error
}

func encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}
