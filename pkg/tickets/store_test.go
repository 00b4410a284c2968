package tickets

import (
	"context"
	"encoding/json"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"ticketdb/pkg/models"
	"ticketdb/pkg/store"
)

// fakeStore is an in-memory Store. Aggregation results are queued per
// call as bson documents and decoded into the caller's slice through a
// JSON round trip, so tests can also inspect the submitted pipelines.
//
// Write semantics: a matched document counts as modified only when a
// substantive field (status, flagged, resolved_by, a context push)
// actually changes; the ts_last_status_change stamp alone does not,
// mirroring the idempotent no-op contract of the real store.
type fakeStore struct {
	ticketDocs  map[string]*models.Ticket
	messageDocs map[string]models.Message

	aggDocs   [][]bson.M
	pipelines []mongo.Pipeline

	messagesCalls int
	messagesArgs  [][]string

	bulkCalls [][]store.TicketUpdate
	bulkErr   error

	inserted  []models.Message
	insertErr error

	updateCalls []updateCall
	updateErr   error

	deletedIDs []string
}

type updateCall struct {
	id   string
	set  bson.M
	push bson.M
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ticketDocs:  map[string]*models.Ticket{},
		messageDocs: map[string]models.Message{},
	}
}

func (f *fakeStore) Ticket(_ context.Context, id string) (*models.Ticket, error) {
	t, ok := f.ticketDocs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeStore) AggregateTickets(_ context.Context, pipeline mongo.Pipeline, out any) error {
	f.pipelines = append(f.pipelines, pipeline)
	var docs []bson.M
	if len(f.aggDocs) > 0 {
		docs = f.aggDocs[0]
		f.aggDocs = f.aggDocs[1:]
	}
	if docs == nil {
		docs = []bson.M{}
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (f *fakeStore) Messages(_ context.Context, ids []string) ([]models.Message, error) {
	f.messagesCalls++
	f.messagesArgs = append(f.messagesArgs, ids)
	var out []models.Message
	for _, id := range ids {
		if m, ok := f.messageDocs[id]; ok {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeStore) Message(_ context.Context, id string) (*models.Message, error) {
	m, ok := f.messageDocs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &m, nil
}

func (f *fakeStore) InsertMessage(_ context.Context, m *models.Message) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, *m)
	f.messageDocs[m.ID] = *m
	return nil
}

func (f *fakeStore) BulkUpdateTickets(_ context.Context, ops []store.TicketUpdate) (store.BulkResult, error) {
	f.bulkCalls = append(f.bulkCalls, ops)
	if f.bulkErr != nil {
		return store.BulkResult{}, f.bulkErr
	}
	var res store.BulkResult
	for _, op := range ops {
		t, ok := f.ticketDocs[op.ID]
		if !ok {
			continue
		}
		res.MatchedCount++
		if f.applyUpdate(t, op.Set, op.Push) {
			res.ModifiedCount++
		}
	}
	return res, nil
}

func (f *fakeStore) UpdateTicketByID(_ context.Context, id string, set, push bson.M) (store.BulkResult, error) {
	f.updateCalls = append(f.updateCalls, updateCall{id: id, set: set, push: push})
	if f.updateErr != nil {
		return store.BulkResult{}, f.updateErr
	}
	t, ok := f.ticketDocs[id]
	if !ok {
		return store.BulkResult{}, nil
	}
	res := store.BulkResult{MatchedCount: 1}
	if f.applyUpdate(t, set, push) {
		res.ModifiedCount = 1
	}
	return res, nil
}

func (f *fakeStore) applyUpdate(t *models.Ticket, set, push bson.M) bool {
	changed := false
	if v, ok := set["status"].(string); ok && t.Status != v {
		t.Status = v
		changed = true
	}
	if v, ok := set["flagged"].(bool); ok && t.Flagged != v {
		t.Flagged = v
		changed = true
	}
	if v, ok := set["resolved_by"].(string); ok && t.ResolvedBy != v {
		t.ResolvedBy = v
		changed = true
	}
	if v, ok := push["context_messages"].(string); ok {
		t.ContextMessages = append(t.ContextMessages, v)
		changed = true
	}
	return changed
}

func (f *fakeStore) DeleteTickets(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if _, ok := f.ticketDocs[id]; ok {
			delete(f.ticketDocs, id)
			f.deletedIDs = append(f.deletedIDs, id)
			n++
		}
	}
	return n, nil
}
