package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/allez-ride/chat-service/internal/domain"
)

func TestClientSendsCountUpdate(t *testing.T) {
	var got CountUpdate
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	err := c.Send(context.Background(), CountUpdate{
		TripID:        "T1",
		RecipientID:   "R1",
		RecipientType: "passenger",
		Count:         1,
		SenderID:      "D1",
		SenderType:    "driver",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotKey != "secret" {
		t.Fatalf("X-API-Key = %q", gotKey)
	}
	if got.TripID != "T1" || got.RecipientID != "R1" || got.RecipientType != "passenger" || got.Count != 1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClientNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	if err := c.Send(context.Background(), CountUpdate{TripID: "T1"}); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestClientTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 30*time.Millisecond)
	start := time.Now()
	if err := c.Send(context.Background(), CountUpdate{TripID: "T1"}); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not bounded")
	}
}

func TestExternalRole(t *testing.T) {
	cases := map[domain.Role]string{
		domain.RoleRider:  "passenger",
		domain.RoleDriver: "driver",
		domain.RoleAdmin:  "admin",
	}
	for role, want := range cases {
		if got := ExternalRole(role); got != want {
			t.Fatalf("ExternalRole(%s) = %q, want %q", role, got, want)
		}
	}
}
