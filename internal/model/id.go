package model

import (
	"strings"

	"github.com/google/uuid"
)

// idNamespace scopes the name-based UUIDs of pipeline entities
var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ppiankov/argintel"))

// StableID derives a UUID from its parts. The same parts always give the
// same ID, so re-running the pipeline on the same input reproduces its IDs.
func StableID(parts ...string) string {
	return uuid.NewSHA1(idNamespace, []byte(strings.Join(parts, "\x00"))).String()
}

// NewID returns a random UUID for entities that are created once per run
func NewID() string {
	return uuid.NewString()
}
