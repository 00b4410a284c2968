package tickets

import (
	"context"

	"ticketdb/pkg/models"
)

// ResolveMessages fetches the messages named by ids, sorted ascending by
// timestamp, and resolves one-hop reply references: the distinct
// reference_msg_id values of the fetched set are loaded in a second
// batched lookup and attached under ReferenceMsg. A reference whose
// target is missing leaves ReferenceMsg nil.
//
// The whole operation is at most two store round trips regardless of
// input size; the ticket detail view depends on the chronological order.
func (s *Service) ResolveMessages(ctx context.Context, ids []string) ([]models.Message, error) {
	uniq := dedupe(ids)
	if len(uniq) == 0 {
		return []models.Message{}, nil
	}
	msgs, err := s.store.Messages(ctx, uniq)
	if err != nil {
		return nil, err
	}

	refIDs := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.ReferenceMsgID != "" {
			refIDs = append(refIDs, m.ReferenceMsgID)
		}
	}
	refIDs = dedupe(refIDs)
	if len(refIDs) == 0 {
		return msgs, nil
	}

	refs, err := s.store.Messages(ctx, refIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Message, len(refs))
	for i := range refs {
		byID[refs[i].ID] = &refs[i]
	}
	for i := range msgs {
		if msgs[i].ReferenceMsgID != "" {
			msgs[i].ReferenceMsg = byID[msgs[i].ReferenceMsgID]
		}
	}
	return msgs, nil
}

// dedupe drops empty ids and duplicates, preserving first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
