package validation

import (
	"fmt"

	"ticketdb/pkg/models"
)

// ticketPatchFields is the allow-list for the generic ticket update. The
// merge is field-by-field; anything outside this set is rejected so a
// caller cannot overwrite internal fields like msg_id or context_messages.
var ticketPatchFields = map[string]string{
	"status":      "string",
	"resolved_by": "string",
	"flagged":     "boolean",
}

// ValidateTicketPatch checks a partial ticket update against the
// allow-list and the expected JSON types.
func ValidateTicketPatch(patch map[string]any) error {
	if len(patch) == 0 {
		return fmt.Errorf("empty update")
	}
	for k, v := range patch {
		want, ok := ticketPatchFields[k]
		if !ok {
			return fmt.Errorf("field %q is not updatable", k)
		}
		switch want {
		case "string":
			if _, ok := v.(string); !ok {
				return fmt.Errorf("field %q must be a string", k)
			}
		case "boolean":
			if _, ok := v.(bool); !ok {
				return fmt.Errorf("field %q must be a boolean", k)
			}
		}
	}
	return nil
}

// ValidateMessage checks the required fields of a message create request.
func ValidateMessage(m models.Message) error {
	if m.ID == "" {
		return fmt.Errorf("_id is required")
	}
	if m.ChannelID == "" {
		return fmt.Errorf("channel_id is required")
	}
	if m.CommunityServerID == "" {
		return fmt.Errorf("community_server_id is required")
	}
	if m.Author.ID == "" {
		return fmt.Errorf("author.id is required")
	}
	return nil
}

// ValidateResolve checks the resolve-ticket payload.
func ValidateResolve(r models.ResolveRequest) error {
	if r.ReplyToMessageID == "" {
		return fmt.Errorf("reply_to_message_id is required")
	}
	if r.Content == "" {
		return fmt.Errorf("content is required")
	}
	if r.Author.ID == "" {
		return fmt.Errorf("author.id is required")
	}
	return nil
}
