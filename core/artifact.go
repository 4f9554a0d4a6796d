package core

import (
	"context"
	"io"
)

// ArtifactStore persists files attached to submissions. Constraints on what may
// be stored (extension allow-list, size ceiling) are enforced by the caller
// before the store is invoked; see submission.ValidateArtifact.
type ArtifactStore interface {
	// Store saves the content under a key derived from the principal and
	// assignment and returns an opaque artifact reference.
	Store(ctx context.Context, principalID, assignmentID, filename string, content io.Reader) (string, error)
	// Resolve turns an artifact reference into a downloadable URL.
	Resolve(ref string) string
}
