// internal/notify/webhook_test.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhook_PostsTaggedText(t *testing.T) {
	var (
		gotType string
		gotBody payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w, err := NewWebhook(Config{URL: srv.URL, UserID: "U123"})
	if err != nil {
		t.Fatalf("NewWebhook err=%v", err)
	}
	if err := w.Post(context.Background(), "channel 0: run failed"); err != nil {
		t.Fatalf("Post err=%v", err)
	}
	if gotType != "application/json" {
		t.Fatalf("content-type=%q", gotType)
	}
	if gotBody.Text != "<@U123>: channel 0: run failed" {
		t.Fatalf("text=%q", gotBody.Text)
	}
}

func TestWebhook_NoUserID(t *testing.T) {
	w, _ := NewWebhook(Config{URL: "http://example.invalid"})
	if got := w.Text("hello"); got != "hello" {
		t.Fatalf("text=%q", got)
	}
}

func TestWebhook_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	w, _ := NewWebhook(Config{URL: srv.URL})
	err := w.Post(context.Background(), "x")
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusForbidden || se.Body != "invalid_token" {
		t.Fatalf("err=%v", err)
	}
}

func TestWebhook_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	w, _ := NewWebhook(Config{URL: srv.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	if err := w.Post(context.Background(), "x"); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("post not bounded by timeout")
	}
}

func TestNewWebhook_RequiresURL(t *testing.T) {
	if _, err := NewWebhook(Config{}); err == nil {
		t.Fatalf("expected error")
	}
}
