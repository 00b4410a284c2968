package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"ticketdb/pkg/logger"
	"ticketdb/pkg/models"
)

// ErrNotFound is returned when a referenced ticket or message does not
// exist. Callers must be able to tell "nothing there" apart from a store
// failure, so this is never used for connectivity errors.
var ErrNotFound = errors.New("not found")

const (
	ticketsCollection  = "tickets"
	messagesCollection = "messages"
)

// Options configures the MongoDB connection.
type Options struct {
	URI         string
	Database    string
	MinPoolSize uint64
	MaxPoolSize uint64
}

// Store wraps the MongoDB client and the two collections this service
// operates on. It is constructed once in main and passed to components
// explicitly; there is no package-level handle.
type Store struct {
	client   *mongo.Client
	tickets  *mongo.Collection
	messages *mongo.Collection
}

// Open connects to MongoDB, verifies the connection with a ping and
// returns a ready Store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	co := options.Client().ApplyURI(opts.URI)
	if opts.MaxPoolSize > 0 {
		co.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		co.SetMinPoolSize(opts.MinPoolSize)
	}
	client, err := mongo.Connect(co)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(opts.Database)
	logger.Info("mongo_connected", "database", opts.Database)
	return &Store{
		client:   client,
		tickets:  db.Collection(ticketsCollection),
		messages: db.Collection(messagesCollection),
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	logger.Info("mongo_disconnected")
	return nil
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Ticket returns the ticket with the given id, or ErrNotFound.
func (s *Store) Ticket(ctx context.Context, id string) (*models.Ticket, error) {
	var t models.Ticket
	err := s.tickets.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		observeOp("ticket_get", err)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find ticket %s: %w", id, err)
	}
	observeOp("ticket_get", nil)
	return &t, nil
}

// AggregateTickets runs an aggregation pipeline on the tickets collection
// and decodes all results into out, which must be a pointer to a slice.
func (s *Store) AggregateTickets(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cur, err := s.tickets.Aggregate(ctx, pipeline)
	if err != nil {
		observeOp("ticket_aggregate", err)
		return fmt.Errorf("aggregate tickets: %w", err)
	}
	if err := cur.All(ctx, out); err != nil {
		observeOp("ticket_aggregate", err)
		return fmt.Errorf("decode ticket aggregation: %w", err)
	}
	observeOp("ticket_aggregate", nil)
	return nil
}

// Messages returns all messages whose id is in ids, sorted ascending by
// timestamp. Ids with no matching document are silently absent from the
// result.
func (s *Store) Messages(ctx context.Context, ids []string) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := s.messages.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		observeOp("message_find", err)
		return nil, fmt.Errorf("find messages: %w", err)
	}
	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		observeOp("message_find", err)
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	observeOp("message_find", nil)
	return out, nil
}

// AllMessages returns every message in the collection.
func (s *Store) AllMessages(ctx context.Context) ([]models.Message, error) {
	cur, err := s.messages.Find(ctx, bson.D{})
	if err != nil {
		observeOp("message_find", err)
		return nil, fmt.Errorf("find messages: %w", err)
	}
	var out []models.Message
	if err := cur.All(ctx, &out); err != nil {
		observeOp("message_find", err)
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	observeOp("message_find", nil)
	return out, nil
}

// Message returns the message with the given id, or ErrNotFound.
func (s *Store) Message(ctx context.Context, id string) (*models.Message, error) {
	var m models.Message
	err := s.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		observeOp("message_get", err)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find message %s: %w", id, err)
	}
	observeOp("message_get", nil)
	return &m, nil
}

// InsertMessage writes a new message document.
func (s *Store) InsertMessage(ctx context.Context, m *models.Message) error {
	if _, err := s.messages.InsertOne(ctx, m); err != nil {
		observeOp("message_insert", err)
		return fmt.Errorf("insert message %s: %w", m.ID, err)
	}
	observeOp("message_insert", nil)
	return nil
}

// MessageChannels returns the distinct channel ids present in the
// messages collection. Order is not guaranteed.
func (s *Store) MessageChannels(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.messages.Distinct(ctx, "channel_id", bson.D{}).Decode(&out); err != nil {
		observeOp("message_distinct", err)
		return nil, fmt.Errorf("distinct channels: %w", err)
	}
	observeOp("message_distinct", nil)
	return out, nil
}

// BulkUpdateTickets applies independent match-one updates in order. The
// batch is not atomic: on error, operations before the failing one may
// already be applied. The partial counts are returned alongside the error
// so callers can report what happened.
func (s *Store) BulkUpdateTickets(ctx context.Context, ops []TicketUpdate) (BulkResult, error) {
	wm := make([]mongo.WriteModel, 0, len(ops))
	for _, op := range ops {
		update := bson.M{}
		if len(op.Set) > 0 {
			update["$set"] = op.Set
		}
		if len(op.Push) > 0 {
			update["$push"] = op.Push
		}
		wm = append(wm, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": op.ID}).
			SetUpdate(update))
	}
	res, err := s.tickets.BulkWrite(ctx, wm, options.BulkWrite().SetOrdered(true))
	out := BulkResult{}
	if res != nil {
		out.MatchedCount = res.MatchedCount
		out.ModifiedCount = res.ModifiedCount
	}
	if err != nil {
		observeOp("ticket_bulk_update", err)
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			return out, fmt.Errorf("bulk update tickets (partial: matched=%d modified=%d): %w",
				out.MatchedCount, out.ModifiedCount, err)
		}
		return out, fmt.Errorf("bulk update tickets: %w", err)
	}
	observeOp("ticket_bulk_update", nil)
	return out, nil
}

// UpdateTicketByID applies a $set/$push update to a single ticket.
func (s *Store) UpdateTicketByID(ctx context.Context, id string, set, push bson.M) (BulkResult, error) {
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(push) > 0 {
		update["$push"] = push
	}
	res, err := s.tickets.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		observeOp("ticket_update", err)
		return BulkResult{}, fmt.Errorf("update ticket %s: %w", id, err)
	}
	observeOp("ticket_update", nil)
	return BulkResult{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

// DeleteTickets removes tickets by id and returns how many were deleted.
func (s *Store) DeleteTickets(ctx context.Context, ids []string) (int64, error) {
	res, err := s.tickets.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		observeOp("ticket_delete", err)
		return 0, fmt.Errorf("delete tickets: %w", err)
	}
	observeOp("ticket_delete", nil)
	return res.DeletedCount, nil
}
