package session

import "context"

// Repo stores session state keyed by an opaque session identifier.
//
// Get on an unknown session returns empty Data with no error: a fresh session
// and a missing one are indistinguishable by design. Update performs an
// atomic read-modify-write for the given session, creating it when absent;
// handlers must route every multi-field mutation through Update so a
// concurrent request on the same session cannot interleave.
type Repo interface {
	Get(ctx context.Context, sessionID string) (Data, error)
	Update(ctx context.Context, sessionID string, fn func(*Data) error) error
	Delete(ctx context.Context, sessionID string) error
}
