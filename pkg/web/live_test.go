package web

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialLive(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(LiveHandler("signup", signupFactory()))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestLiveValidation(t *testing.T) {
	conn := dialLive(t)

	if err := conn.WriteJSON(liveDraft{Data: map[string][]string{
		"user-email": {"nope"},
	}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var verdict liveVerdict
	if err := conn.ReadJSON(&verdict); err != nil {
		t.Fatalf("read: %v", err)
	}
	if verdict.Valid {
		t.Fatal("expected invalid draft")
	}
	if _, ok := verdict.Errors["user-email"]; !ok {
		t.Errorf("errors = %v", verdict.Errors)
	}

	// A corrected draft gets a fresh verdict on the same connection.
	if err := conn.WriteJSON(liveDraft{Data: map[string][]string{
		"user-email": {"a@b.co"},
	}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&verdict); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !verdict.Valid {
		t.Errorf("expected valid draft, errors = %v", verdict.Errors)
	}
	if len(verdict.Errors) != 0 {
		t.Errorf("valid verdict must carry no errors, got %v", verdict.Errors)
	}
}

func TestLiveRejectsPlainGet(t *testing.T) {
	srv := httptest.NewServer(LiveHandler("signup", signupFactory()))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 101 {
		t.Error("plain GET must not upgrade")
	}
}
