package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketdb/pkg/models"
	"ticketdb/pkg/store"
)

func openTicket(id, msgID string) *models.Ticket {
	return &models.Ticket{
		ID:        id,
		MsgID:     msgID,
		Status:    models.StatusOpen,
		Timestamp: time.Now().UTC(),
	}
}

func TestSetFlagEmptyIDsFailsBeforeStore(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)

	_, err := svc.SetFlag(context.Background(), nil, true)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, fs.bulkCalls, "store must not be touched")
}

func TestSetFlagOnlyTouchesFlagged(t *testing.T) {
	fs := newFakeStore()
	fs.ticketDocs["t1"] = openTicket("t1", "m1")
	fs.ticketDocs["t2"] = openTicket("t2", "m2")
	svc := NewService(fs)

	res, err := svc.SetFlag(context.Background(), []string{"t1", "t2"}, true)
	require.NoError(t, err)
	assert.Equal(t, store.BulkResult{MatchedCount: 2, ModifiedCount: 2}, res)

	require.Len(t, fs.bulkCalls, 1)
	for _, op := range fs.bulkCalls[0] {
		assert.Equal(t, true, op.Set["flagged"])
		assert.NotContains(t, op.Set, "status")
		assert.NotContains(t, op.Set, "ts_last_status_change")
	}
	assert.Equal(t, models.StatusOpen, fs.ticketDocs["t1"].Status)
}

func TestCloseIsIdempotent(t *testing.T) {
	fs := newFakeStore()
	fs.ticketDocs["t1"] = openTicket("t1", "m1")
	svc := NewService(fs)

	first, err := svc.Close(context.Background(), []string{"t1"})
	require.NoError(t, err)
	assert.Equal(t, store.BulkResult{MatchedCount: 1, ModifiedCount: 1}, first)
	assert.Equal(t, models.StatusClosed, fs.ticketDocs["t1"].Status)

	second, err := svc.Close(context.Background(), []string{"t1"})
	require.NoError(t, err)
	assert.Equal(t, store.BulkResult{MatchedCount: 1, ModifiedCount: 0}, second,
		"already-closed ticket matches without modifying")
}

func TestCloseStampsStatusChange(t *testing.T) {
	fs := newFakeStore()
	fs.ticketDocs["t1"] = openTicket("t1", "m1")
	svc := NewService(fs)

	_, err := svc.Close(context.Background(), []string{"t1"})
	require.NoError(t, err)
	require.Len(t, fs.bulkCalls, 1)
	op := fs.bulkCalls[0][0]
	assert.Equal(t, models.StatusClosed, op.Set["status"])
	assert.Contains(t, op.Set, "ts_last_status_change")
}

func TestOpenReopensResolvedTicket(t *testing.T) {
	fs := newFakeStore()
	tk := openTicket("t1", "m1")
	tk.Status = models.StatusResolved
	fs.ticketDocs["t1"] = tk
	svc := NewService(fs)

	res, err := svc.Open(context.Background(), []string{"t1"})
	require.NoError(t, err)
	assert.Equal(t, store.BulkResult{MatchedCount: 1, ModifiedCount: 1}, res)
	assert.Equal(t, models.StatusOpen, fs.ticketDocs["t1"].Status)
}

func TestBulkStatusEmptyIDs(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.Close(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Open(context.Background(), []string{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveWritesReplyAndLinksTicket(t *testing.T) {
	fs := newFakeStore()
	anchor := models.Message{
		ID:                "m1",
		ChannelID:         "c1",
		ParentChannelID:   "pc1",
		CommunityServerID: "s1",
		DiscussionID:      "d1",
		Timestamp:         time.Now().UTC(),
	}
	fs.messageDocs["m1"] = anchor
	tk := openTicket("t1", "m1")
	tk.ContextMessages = []string{"prior"}
	fs.ticketDocs["t1"] = tk
	svc := NewService(fs)

	res, err := svc.Resolve(context.Background(), "t1", models.ResolveRequest{
		ReplyToMessageID: "m1",
		Content:          "done",
		MsgURL:           "https://chat.example/m2",
		Author:           models.Author{ID: "a1", Name: "Alice"},
	})
	require.NoError(t, err)
	assert.Equal(t, store.BulkResult{MatchedCount: 1, ModifiedCount: 1}, res)

	// The synthesized reply copies routing fields from the original
	// message and points back at it.
	require.Len(t, fs.inserted, 1)
	reply := fs.inserted[0]
	assert.NotEmpty(t, reply.ID)
	assert.Equal(t, "m1", reply.ReferenceMsgID)
	assert.Equal(t, "c1", reply.ChannelID)
	assert.Equal(t, "pc1", reply.ParentChannelID)
	assert.Equal(t, "s1", reply.CommunityServerID)
	assert.Equal(t, "d1", reply.DiscussionID)
	assert.Equal(t, "done", reply.Content)
	assert.Equal(t, "a1", reply.AuthorID)
	assert.False(t, reply.Timestamp.IsZero())

	got := fs.ticketDocs["t1"]
	assert.Equal(t, models.StatusResolved, got.Status)
	assert.Equal(t, "a1", got.ResolvedBy)
	assert.Equal(t, []string{"prior", reply.ID}, got.ContextMessages,
		"reply id is appended, prior context kept")
}

func TestResolveMissingReplyTarget(t *testing.T) {
	fs := newFakeStore()
	fs.ticketDocs["t1"] = openTicket("t1", "m1")
	svc := NewService(fs)

	_, err := svc.Resolve(context.Background(), "t1", models.ResolveRequest{
		ReplyToMessageID: "gone",
		Content:          "done",
		Author:           models.Author{ID: "a1"},
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, fs.inserted, "no reply may be written for a missing target")
	assert.Empty(t, fs.updateCalls)
}

func TestResolveEmptyReplyID(t *testing.T) {
	svc := NewService(newFakeStore())
	_, err := svc.Resolve(context.Background(), "t1", models.ResolveRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateRejectsUnknownFields(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)

	_, err := svc.Update(context.Background(), "t1", map[string]any{"msg_id": "evil"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, fs.updateCalls)
}

func TestUpdateStatusStampsChangeTime(t *testing.T) {
	fs := newFakeStore()
	fs.ticketDocs["t1"] = openTicket("t1", "m1")
	svc := NewService(fs)

	_, err := svc.Update(context.Background(), "t1", map[string]any{"status": "closed"})
	require.NoError(t, err)
	require.Len(t, fs.updateCalls, 1)
	call := fs.updateCalls[0]
	assert.Equal(t, "closed", call.set["status"])
	assert.Contains(t, call.set, "ts_last_status_change",
		"status updates stamp the change time regardless of caller input")
}

func TestUpdateWithoutStatusLeavesStampAlone(t *testing.T) {
	fs := newFakeStore()
	fs.ticketDocs["t1"] = openTicket("t1", "m1")
	svc := NewService(fs)

	_, err := svc.Update(context.Background(), "t1", map[string]any{"flagged": true})
	require.NoError(t, err)
	require.Len(t, fs.updateCalls, 1)
	assert.NotContains(t, fs.updateCalls[0].set, "ts_last_status_change")
}

func TestDelete(t *testing.T) {
	fs := newFakeStore()
	fs.ticketDocs["t1"] = openTicket("t1", "m1")
	svc := NewService(fs)

	n, err := svc.Delete(context.Background(), []string{"t1", "t2"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.Delete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
