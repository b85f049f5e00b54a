// Package sync pushes notes to the remote sync server and records the
// outcome on the note itself. Pushes are fire-and-forget from the panel's
// point of view: the result arrives later through the store's change feed.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/quirelabs/quire/internal/store"
	"github.com/quirelabs/quire/utils"
)

// Reason codes recorded by the client. "success" is the only success value;
// an empty reason means a push is still in flight. Servers may return their
// own codes, which are stored verbatim.
const (
	ReasonSuccess      = "success"
	ReasonUnauthorized = "unauthorized"
	ReasonUnreachable  = "unreachable"
	ReasonRejected     = "rejected"
)

// Client pushes notes to a sync endpoint.
type Client struct {
	endpoint string
	token    string
	userID   int32
	store    store.Store
	http     *http.Client
}

// NewClient validates token against secret and returns a client bound to
// endpoint. An empty endpoint or token yields a nil client and no error;
// callers treat a nil client as "sync disabled".
func NewClient(endpoint, token, secret string, st store.Store) (*Client, error) {
	if endpoint == "" || token == "" {
		return nil, nil
	}

	claims, err := utils.GetClaims(token, secret)
	if err != nil {
		return nil, fmt.Errorf("sync token: %w", err)
	}

	return &Client{
		endpoint: endpoint,
		token:    token,
		userID:   claims.UserID,
		store:    st,
		http:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Push sends the note to the server and records the outcome via
// SetSyncResult. On success the sync stamp is the note's ordering stamp at
// push time, so an edit racing the push leaves the note reading as stale.
// On failure the prior sync stamp is preserved and only the reason changes.
func (c *Client) Push(ctx context.Context, id int64) error {
	n, err := c.store.NoteByID(ctx, id)
	if err != nil {
		return err
	}

	stamp := n.OrderStamp()
	reason := c.send(ctx, n)

	syncAt := n.SyncAt
	if reason == ReasonSuccess {
		syncAt = stamp
	}
	return c.store.SetSyncResult(ctx, id, syncAt, reason)
}

// PushAsync runs Push on its own goroutine. Errors surface only through the
// recorded sync result.
func (c *Client) PushAsync(ctx context.Context, id int64) {
	go func() {
		_ = c.Push(ctx, id)
	}()
}

func (c *Client) send(ctx context.Context, n *store.Note) string {
	payload := notePayload{
		NoteID:   n.ID,
		BookID:   n.BookID,
		UserID:   c.userID,
		Content:  n.Content,
		CreateAt: n.CreateAt,
		UpdateAt: n.UpdateAt,
		DeleteAt: n.DeleteAt,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return ReasonRejected
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPut,
		fmt.Sprintf("%s/v1/api/notes/%d", c.endpoint, n.ID),
		bytes.NewBuffer(data),
	)
	if err != nil {
		return ReasonRejected
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))

	resp, err := c.http.Do(req)
	if err != nil {
		return ReasonUnreachable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return ReasonSuccess
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ReasonUnauthorized
	default:
		var body pushResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Reason != "" {
			return body.Reason
		}
		return ReasonRejected
	}
}

// Resync clears the note's failure reason so it reads as "syncing" and
// pushes it again.
func (c *Client) Resync(ctx context.Context, id int64) error {
	if err := c.store.ResyncNote(ctx, id); err != nil {
		return err
	}
	c.PushAsync(ctx, id)
	return nil
}
