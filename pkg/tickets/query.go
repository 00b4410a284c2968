package tickets

import (
	"context"
	"fmt"

	"ticketdb/pkg/logger"
	"ticketdb/pkg/models"
)

// MaxPageSize bounds the listing page size.
const MaxPageSize = 100

type countRow struct {
	TotalCount int64 `bson:"total_count" json:"total_count"`
}

type authorsRow struct {
	DistinctAuthors []models.Author `bson:"distinct_authors" json:"distinct_authors"`
}

type channelRow struct {
	ChannelID string `bson:"channel_id" json:"channel_id"`
}

// List returns one page of tickets matching f plus the pre-pagination
// total for the same predicates. With any of author/channel/query set the
// anchor message is joined in-store; otherwise tickets are filtered
// directly and anchor messages are attached from one batched fetch.
func (s *Service) List(ctx context.Context, f Filter, page, size int) (*models.TicketPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1", ErrInvalidInput)
	}
	if size < 1 || size > MaxPageSize {
		return nil, fmt.Errorf("%w: size must be in [1,%d]", ErrInvalidInput, MaxPageSize)
	}

	var data []models.TicketView
	if err := s.store.AggregateTickets(ctx, dataPipeline(f, page, size), &data); err != nil {
		return nil, err
	}
	if !f.Joined() {
		if err := s.attachAnchors(ctx, data); err != nil {
			return nil, err
		}
	}

	var rows []countRow
	if err := s.store.AggregateTickets(ctx, countPipeline(f), &rows); err != nil {
		return nil, err
	}
	var total int64
	if len(rows) > 0 {
		total = rows[0].TotalCount
	}
	logger.Debug("tickets_list", "page", page, "size", size, "joined", f.Joined(), "total", total)
	return &models.TicketPage{TotalCount: total, Data: data}, nil
}

// attachAnchors batch-fetches the page's anchor messages and attaches them
// by msg_id. Tickets whose anchor is missing keep a nil Message.
func (s *Service) attachAnchors(ctx context.Context, data []models.TicketView) error {
	ids := make([]string, 0, len(data))
	for _, tv := range data {
		if tv.MsgID != "" {
			ids = append(ids, tv.MsgID)
		}
	}
	msgs, err := s.store.Messages(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]*models.Message, len(msgs))
	for i := range msgs {
		byID[msgs[i].ID] = &msgs[i]
	}
	for i := range data {
		data[i].Message = byID[data[i].MsgID]
	}
	return nil
}

// Detail returns the ticket with its full message thread: the anchor
// message union context messages, sorted chronologically, with one-hop
// reply references resolved.
func (s *Service) Detail(ctx context.Context, id string) (*models.TicketDetail, error) {
	t, err := s.store.Ticket(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := append([]string{t.MsgID}, t.ContextMessages...)
	msgs, err := s.ResolveMessages(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &models.TicketDetail{Ticket: *t, Messages: msgs}, nil
}

// DistinctAuthors returns the unique author objects across all tickets'
// anchor messages.
func (s *Service) DistinctAuthors(ctx context.Context) ([]models.Author, error) {
	var rows []authorsRow
	if err := s.store.AggregateTickets(ctx, authorsPipeline(), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []models.Author{}, nil
	}
	return rows[0].DistinctAuthors, nil
}

// DistinctChannels returns the unique channel ids across all tickets'
// anchor messages.
func (s *Service) DistinctChannels(ctx context.Context) ([]string, error) {
	var rows []channelRow
	if err := s.store.AggregateTickets(ctx, channelsPipeline(), &rows); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ChannelID)
	}
	return out, nil
}
