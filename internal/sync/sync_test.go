package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/quirelabs/quire/internal/store"
	"github.com/quirelabs/quire/utils"
)

const testSecret = "sync-client-test-secret"

func signToken(t *testing.T, userID int32) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &utils.Claims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newSyncFixture(t *testing.T, handler http.Handler) (*Client, *store.DiskStore, int64) {
	t.Helper()

	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if _, err := s.CreateBook(context.Background(), "inbox"); err != nil {
		t.Fatalf("create book: %v", err)
	}
	id, err := s.UpsertNote(context.Background(), "<p>hello</p>")
	if err != nil {
		t.Fatalf("upsert note: %v", err)
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, signToken(t, 7), testSecret, s)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, s, id
}

func TestNewClientDisabledWithoutEndpoint(t *testing.T) {
	c, err := NewClient("", "", testSecret, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != nil {
		t.Fatal("expected nil client when sync is unconfigured")
	}
}

func TestNewClientRejectsBadToken(t *testing.T) {
	if _, err := NewClient("http://example.invalid", "not-a-token", testSecret, nil); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestPushSuccessRecordsStamp(t *testing.T) {
	var gotAuth string
	c, s, id := newSyncFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))

	if err := c.Push(context.Background(), id); err != nil {
		t.Fatalf("push: %v", err)
	}

	n, err := s.NoteByID(context.Background(), id)
	if err != nil {
		t.Fatalf("note by id: %v", err)
	}
	if n.Reason != ReasonSuccess {
		t.Fatalf("expected reason %q, got %q", ReasonSuccess, n.Reason)
	}
	if !n.Synced() {
		t.Fatalf("expected note in sync, got syncAt=%d stamp=%d", n.SyncAt, n.OrderStamp())
	}
	if gotAuth == "" {
		t.Fatal("expected bearer token on request")
	}
}

func TestPushUnauthorized(t *testing.T) {
	c, s, id := newSyncFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	if err := c.Push(context.Background(), id); err != nil {
		t.Fatalf("push: %v", err)
	}

	n, _ := s.NoteByID(context.Background(), id)
	if n.Reason != ReasonUnauthorized {
		t.Fatalf("expected reason %q, got %q", ReasonUnauthorized, n.Reason)
	}
	if n.Synced() {
		t.Fatal("failed push must not mark the note in sync")
	}
}

func TestPushServerReasonPassesThrough(t *testing.T) {
	c, s, id := newSyncFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"reason":"quota exceeded"}`))
	}))

	if err := c.Push(context.Background(), id); err != nil {
		t.Fatalf("push: %v", err)
	}

	n, _ := s.NoteByID(context.Background(), id)
	if n.Reason != "quota exceeded" {
		t.Fatalf("expected server reason, got %q", n.Reason)
	}
}

func TestPushUnreachable(t *testing.T) {
	c, s, id := newSyncFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// Point the client at a closed port.
	c.endpoint = "http://127.0.0.1:1"

	if err := c.Push(context.Background(), id); err != nil {
		t.Fatalf("push: %v", err)
	}

	n, _ := s.NoteByID(context.Background(), id)
	if n.Reason != ReasonUnreachable {
		t.Fatalf("expected reason %q, got %q", ReasonUnreachable, n.Reason)
	}
}

func TestPushFailurePreservesPriorSyncStamp(t *testing.T) {
	c, s, id := newSyncFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if err := s.SetSyncResult(context.Background(), id, 12345, ReasonSuccess); err != nil {
		t.Fatalf("seed sync result: %v", err)
	}

	if err := c.Push(context.Background(), id); err != nil {
		t.Fatalf("push: %v", err)
	}

	n, _ := s.NoteByID(context.Background(), id)
	if n.SyncAt != 12345 {
		t.Fatalf("expected sync stamp preserved, got %d", n.SyncAt)
	}
	if n.Reason != ReasonRejected {
		t.Fatalf("expected reason %q, got %q", ReasonRejected, n.Reason)
	}
}

func TestResyncClearsReasonBeforePush(t *testing.T) {
	block := make(chan struct{})
	c, s, id := newSyncFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
		w.WriteHeader(http.StatusOK)
	}))

	if err := s.SetSyncResult(context.Background(), id, 0, ReasonUnreachable); err != nil {
		t.Fatalf("seed sync result: %v", err)
	}

	if err := c.Resync(context.Background(), id); err != nil {
		t.Fatalf("resync: %v", err)
	}

	// While the push is in flight the note reads as "syncing".
	n, _ := s.NoteByID(context.Background(), id)
	if n.Reason != "" {
		t.Fatalf("expected cleared reason, got %q", n.Reason)
	}
	close(block)
}
