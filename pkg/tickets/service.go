// Package tickets implements the ticket query and lifecycle engine: the
// filtered/paginated listing planner, the batched message resolver and the
// bulk state transitions.
package tickets

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"ticketdb/pkg/models"
	"ticketdb/pkg/store"
)

// ErrInvalidInput marks requests rejected before any store call (empty id
// lists, page/size bounds, unknown update fields).
var ErrInvalidInput = errors.New("invalid input")

// Store is the document-store surface the engine needs. *store.Store
// satisfies it; tests substitute a fake.
type Store interface {
	Ticket(ctx context.Context, id string) (*models.Ticket, error)
	AggregateTickets(ctx context.Context, pipeline mongo.Pipeline, out any) error
	Messages(ctx context.Context, ids []string) ([]models.Message, error)
	Message(ctx context.Context, id string) (*models.Message, error)
	InsertMessage(ctx context.Context, m *models.Message) error
	BulkUpdateTickets(ctx context.Context, ops []store.TicketUpdate) (store.BulkResult, error)
	UpdateTicketByID(ctx context.Context, id string, set, push bson.M) (store.BulkResult, error)
	DeleteTickets(ctx context.Context, ids []string) (int64, error)
}

// Service is the ticket engine. It holds no state beyond the store handle
// and is safe for concurrent use.
type Service struct {
	store Store
}

// NewService returns a Service backed by st.
func NewService(st Store) *Service {
	return &Service{store: st}
}
