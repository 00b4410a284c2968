package tickets

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"ticketdb/pkg/logger"
	"ticketdb/pkg/models"
	"ticketdb/pkg/store"
	"ticketdb/pkg/utils"
	"ticketdb/pkg/validation"
)

// SetFlag sets or clears the flagged field on the given tickets. Status is
// untouched. Rejected before any store call when ids is empty.
func (s *Service) SetFlag(ctx context.Context, ids []string, flagged bool) (store.BulkResult, error) {
	if len(ids) == 0 {
		return store.BulkResult{}, fmt.Errorf("%w: no ticket ids provided", ErrInvalidInput)
	}
	ops := make([]store.TicketUpdate, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, store.TicketUpdate{ID: id, Set: bson.M{"flagged": flagged}})
	}
	res, err := s.store.BulkUpdateTickets(ctx, ops)
	if err != nil {
		return res, err
	}
	logger.Info("tickets_flagged", "count", len(ids), "flagged", flagged, "modified", res.ModifiedCount)
	return res, nil
}

// Close transitions the given tickets to closed. Already-closed tickets
// match without modifying; matched > modified is the idempotent no-op
// signal, not an error.
func (s *Service) Close(ctx context.Context, ids []string) (store.BulkResult, error) {
	return s.setStatus(ctx, ids, models.StatusClosed)
}

// Open transitions the given tickets to open. There is no terminal state:
// resolved and closed tickets may be reopened.
func (s *Service) Open(ctx context.Context, ids []string) (store.BulkResult, error) {
	return s.setStatus(ctx, ids, models.StatusOpen)
}

func (s *Service) setStatus(ctx context.Context, ids []string, status string) (store.BulkResult, error) {
	if len(ids) == 0 {
		return store.BulkResult{}, fmt.Errorf("%w: no ticket ids provided", ErrInvalidInput)
	}
	now := time.Now().UTC()
	ops := make([]store.TicketUpdate, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, store.TicketUpdate{ID: id, Set: bson.M{
			"status":                status,
			"ts_last_status_change": now,
		}})
	}
	res, err := s.store.BulkUpdateTickets(ctx, ops)
	if err != nil {
		return res, err
	}
	logger.Info("tickets_status_set", "status", status, "count", len(ids), "modified", res.ModifiedCount)
	return res, nil
}

// Resolve resolves one ticket by writing a reply message and linking it
// back. Two store writes run in sequence without a transaction: the reply
// insert and the ticket update. A failure between them leaves the reply
// message orphaned; this at-least-once behavior is accepted and surfaced
// through the returned error rather than rolled back.
func (s *Service) Resolve(ctx context.Context, ticketID string, req models.ResolveRequest) (store.BulkResult, error) {
	if req.ReplyToMessageID == "" {
		return store.BulkResult{}, fmt.Errorf("%w: reply_to_message_id is required", ErrInvalidInput)
	}
	orig, err := s.store.Message(ctx, req.ReplyToMessageID)
	if err != nil {
		return store.BulkResult{}, err
	}

	now := time.Now().UTC()
	reply := &models.Message{
		ID:                utils.GenMessageID(),
		ChannelID:         orig.ChannelID,
		ParentChannelID:   orig.ParentChannelID,
		CommunityServerID: orig.CommunityServerID,
		DiscussionID:      orig.DiscussionID,
		Timestamp:         now,
		TimestampInsert:   now,
		ReferenceMsgID:    req.ReplyToMessageID,
		AuthorID:          req.Author.ID,
		Author:            req.Author,
		Content:           req.Content,
		MsgURL:            req.MsgURL,
	}
	if err := s.store.InsertMessage(ctx, reply); err != nil {
		return store.BulkResult{}, err
	}

	res, err := s.store.UpdateTicketByID(ctx, ticketID,
		bson.M{
			"status":                models.StatusResolved,
			"resolved_by":           req.Author.ID,
			"ts_last_status_change": now,
		},
		bson.M{"context_messages": reply.ID},
	)
	if err != nil {
		// The reply message is already inserted and now unlinked.
		return res, fmt.Errorf("ticket update after reply insert %s: %w", reply.ID, err)
	}
	logger.Info("ticket_resolved", "ticket", ticketID, "reply", reply.ID, "by", req.Author.ID)
	return res, nil
}

// Update merges allow-listed fields into a ticket. Supplying status stamps
// ts_last_status_change with the current time regardless of any value the
// caller provided.
func (s *Service) Update(ctx context.Context, id string, patch map[string]any) (store.BulkResult, error) {
	if err := validation.ValidateTicketPatch(patch); err != nil {
		return store.BulkResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	set := bson.M{}
	for k, v := range patch {
		set[k] = v
	}
	if _, ok := set["status"]; ok {
		set["ts_last_status_change"] = time.Now().UTC()
	}
	return s.store.UpdateTicketByID(ctx, id, set, nil)
}

// Delete removes tickets by id. This is an administrative operation, not a
// lifecycle transition; the caller decides how to report zero matches.
func (s *Service) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: no ticket ids provided", ErrInvalidInput)
	}
	n, err := s.store.DeleteTickets(ctx, ids)
	if err != nil {
		return n, err
	}
	logger.Info("tickets_deleted", "requested", len(ids), "deleted", n)
	return n, nil
}
