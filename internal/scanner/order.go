package scanner

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidOrderID is returned for payloads that are not order IDs
var ErrInvalidOrderID = errors.New("invalid order id")

// shortLen is the length of an unpadded base64url UUID
const shortLen = 22

// ParseOrderID decodes a scanned payload. Delimiters and surrounding
// whitespace are ignored; the payload is either a UUID in any form
// uuid.Parse accepts or a 22 character base64url shortened UUID.
func ParseOrderID(frame string) (uuid.UUID, error) {
	s := strings.TrimSpace(strings.TrimRight(frame, "\x00\r\n"))
	if s == "" {
		return uuid.Nil, fmt.Errorf("%w: empty payload", ErrInvalidOrderID)
	}

	if id, err := uuid.Parse(s); err == nil {
		return id, nil
	}

	if len(s) == shortLen {
		raw, err := base64.RawURLEncoding.DecodeString(s)
		if err == nil {
			if id, err := uuid.FromBytes(raw); err == nil {
				return id, nil
			}
		}
	}

	return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidOrderID, s)
}

// ShortenOrderID encodes id as unpadded base64url
func ShortenOrderID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}
