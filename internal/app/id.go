package app

import (
	"strings"

	"github.com/google/uuid"
)

// newID produces a hyphenless UUID string, the identity scheme shared by
// tenants and the users provisioned for them.
// Isolated here so the ID strategy can evolve independently.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
