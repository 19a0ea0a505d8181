package cart

import "context"

// Store persists cart snapshots by session id. Implementations copy on the way
// in and out; callers serialize writers per session through Locker.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]Line, error)
	Save(ctx context.Context, sessionID string, lines []Line) error
	Delete(ctx context.Context, sessionID string) error
}
