package services

import (
	"fmt"
	"strings"

	"github.com/anonto42/pinpost/backend/internal/models"
)

// OwnershipPolicy decides who may update or delete a post.
type OwnershipPolicy string

const (
	// OwnershipOpen lets any authenticated caller edit or delete any post.
	OwnershipOpen OwnershipPolicy = "open"
	// OwnershipStrict restricts edits and deletes to the post's author.
	OwnershipStrict OwnershipPolicy = "strict"
)

// ParseOwnershipPolicy accepts "open" or "strict"; empty means open.
func ParseOwnershipPolicy(s string) (OwnershipPolicy, error) {
	switch p := OwnershipPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", OwnershipOpen:
		return OwnershipOpen, nil
	case OwnershipStrict:
		return OwnershipStrict, nil
	default:
		return "", fmt.Errorf("unknown ownership policy %q", s)
	}
}

// CanModify reports whether identity may mutate post under p.
func (p OwnershipPolicy) CanModify(identity models.Identity, post *models.Post) bool {
	if p != OwnershipStrict {
		return true
	}
	return post.UserID == identity.ID
}
