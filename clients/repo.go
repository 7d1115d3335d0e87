package clients

import "context"

// Repo persists the client registry. Reads vastly outnumber writes; the
// registry is effectively immutable during a request.
type Repo interface {
	Upsert(ctx context.Context, client *Client) error
	Delete(ctx context.Context, clientID string) error
	// Get returns the client, or (nil, nil) when no such client exists.
	// A non-nil error means the store could not answer.
	Get(ctx context.Context, clientID string) (*Client, error)
	// List returns clients in id order starting at offset. A limit of
	// zero or less means no limit.
	List(ctx context.Context, offset, limit int) ([]*Client, error)
}
