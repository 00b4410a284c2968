package models

import "time"

// Author is the embedded message author as ingested from the chat platform.
type Author struct {
	ID              string    `bson:"id" json:"id"`
	Name            string    `bson:"name" json:"name"`
	Nickname        string    `bson:"nickname,omitempty" json:"nickname,omitempty"`
	Color           string    `bson:"color,omitempty" json:"color,omitempty"`
	Discriminator   string    `bson:"discriminator,omitempty" json:"discriminator,omitempty"`
	AvatarURL       string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	IsBot           bool      `bson:"is_bot,omitempty" json:"is_bot,omitempty"`
	TimestampInsert time.Time `bson:"timestamp_insert,omitempty" json:"timestamp_insert,omitempty"`
}

// Message is a chat message. Messages are written once (by ingestion or as a
// resolution reply) and never mutated afterwards.
type Message struct {
	ID                string    `bson:"_id" json:"_id"`
	ChannelID         string    `bson:"channel_id" json:"channel_id"`
	ParentChannelID   string    `bson:"parent_channel_id,omitempty" json:"parent_channel_id,omitempty"`
	CommunityServerID string    `bson:"community_server_id" json:"community_server_id"`
	Timestamp         time.Time `bson:"timestamp" json:"timestamp"`
	DiscussionID      string    `bson:"discussion_id,omitempty" json:"discussion_id,omitempty"`
	AuthorID          string    `bson:"author_id,omitempty" json:"author_id,omitempty"`
	Author            Author    `bson:"author" json:"author"`
	Content           string    `bson:"content" json:"content"`
	MsgURL            string    `bson:"msg_url,omitempty" json:"msg_url,omitempty"`
	// ReferenceMsgID points at the message this one replies to, one hop only.
	ReferenceMsgID  string    `bson:"reference_msg_id,omitempty" json:"reference_msg_id,omitempty"`
	HasAttachment   bool      `bson:"has_attachment,omitempty" json:"has_attachment,omitempty"`
	TimestampInsert time.Time `bson:"timestamp_insert,omitempty" json:"timestamp_insert,omitempty"`

	// ReferenceMsg is attached by the message resolver when the referenced
	// message exists. Never persisted.
	ReferenceMsg *Message `bson:"reference_msg,omitempty" json:"reference_msg,omitempty"`
}
