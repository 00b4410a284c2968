package models

import "time"

// Ticket statuses produced by lifecycle transitions. The status field is a
// free-form string in the store; these are the only values we write.
const (
	StatusOpen     = "open"
	StatusClosed   = "closed"
	StatusResolved = "resolved"
)

// Ticket is a tracked support record anchored to one originating message.
// Tickets are created by the ingestion side; this service only mutates
// status, flag and context_messages.
type Ticket struct {
	ID         string `bson:"_id" json:"_id"`
	MsgID      string `bson:"msg_id" json:"msg_id"`
	Status     string `bson:"status" json:"status"`
	ResolvedBy string `bson:"resolved_by,omitempty" json:"resolved_by,omitempty"`
	Flagged    bool   `bson:"flagged,omitempty" json:"flagged,omitempty"`
	// TsLastStatusChange is stamped on every status transition.
	TsLastStatusChange time.Time `bson:"ts_last_status_change,omitempty" json:"ts_last_status_change,omitempty"`
	Timestamp          time.Time `bson:"timestamp" json:"timestamp"`
	// ContextMessages accumulates message ids over the ticket's life in
	// append order; duplicates are allowed.
	ContextMessages []string `bson:"context_messages,omitempty" json:"context_messages"`
}

// TicketView is a ticket with its anchor message attached. The joined
// listing strategy produces the message via $lookup/$unwind; the non-joined
// strategy attaches it after a batched fetch. Message is nil when the
// anchor is missing, which is not an error.
type TicketView struct {
	Ticket  `bson:",inline"`
	Message *Message `bson:"message,omitempty" json:"message"`
}

// TicketPage is one page of a filtered listing plus the pre-pagination
// total for the same filter predicates.
type TicketPage struct {
	TotalCount int64        `json:"total_count"`
	Data       []TicketView `json:"data"`
}

// TicketDetail is a ticket plus its chronologically ordered message thread
// (anchor message union context messages, reply references resolved).
type TicketDetail struct {
	Ticket   `bson:",inline"`
	Messages []Message `json:"messages"`
}

// ResolveRequest is the payload for resolving a ticket with a reply.
type ResolveRequest struct {
	ReplyToMessageID string `json:"reply_to_message_id"`
	Content          string `json:"content"`
	MsgURL           string `json:"msg_url"`
	Author           Author `json:"author"`
}
