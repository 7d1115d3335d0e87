// Package httpdirectory resolves user profiles from the internal user
// service over HTTP.
package httpdirectory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/zenwallet/authbroker/users"
)

var _ users.Directory = (*HTTPDirectory)(nil)

const defaultTimeout = 5 * time.Second

type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

type Option func(*HTTPDirectory)

// WithClient overrides the HTTP client (primarily for testing).
func WithClient(client *http.Client) Option {
	return func(d *HTTPDirectory) {
		d.client = client
	}
}

func New(baseURL string, options ...Option) *HTTPDirectory {
	d := &HTTPDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// GetByID fetches the profile for userID. A 404 from the user service
// means the id is unknown, which is not an error here.
func (d *HTTPDirectory) GetByID(ctx context.Context, userID string) (*users.User, error) {
	endpoint := d.baseURL + "/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPDirectory.GetByID] build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPDirectory.GetByID] request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, errors.Errorf("[HTTPDirectory.GetByID] user service returned %d", resp.StatusCode)
	}

	var user users.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "[HTTPDirectory.GetByID] decode response")
	}
	return &user, nil
}
