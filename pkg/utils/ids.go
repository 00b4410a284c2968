package utils

import "github.com/google/uuid"

// GenMessageID returns a fresh identifier for a synthesized message.
func GenMessageID() string {
	return uuid.NewString()
}
