package store

import "go.mongodb.org/mongo-driver/v2/bson"

// TicketUpdate is one match-one update in a bulk batch: the ticket id to
// match and the $set / $push documents to apply.
type TicketUpdate struct {
	ID   string
	Set  bson.M
	Push bson.M
}

// BulkResult carries the aggregate matched/modified counts of a write.
// matched > modified signals idempotent no-ops, not an error.
type BulkResult struct {
	MatchedCount  int64 `json:"matched_count"`
	ModifiedCount int64 `json:"modified_count"`
}
