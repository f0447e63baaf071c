package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookChannelPostsTextPayload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := channel.Send(context.Background(), "[CRITICAL] gpu-2: exhaust overheat"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Text != "[CRITICAL] gpu-2: exhaust overheat" {
		t.Fatalf("payload text = %q", got.Text)
	}
}

func TestWebhookChannelRejectsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := channel.Send(context.Background(), "content"); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

func TestWebhookChannelRequiresURL(t *testing.T) {
	if _, err := NewWebhookChannel(""); err == nil {
		t.Fatal("expected error for empty url")
	}
}
