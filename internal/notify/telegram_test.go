package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestTelegram(t *testing.T, h http.HandlerFunc) *Telegram {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	tg := NewTelegram("123:secret", "42")
	tg.BaseURL = ts.URL
	return tg
}

func TestTelegram_SendHTML(t *testing.T) {
	var path string
	var payload map[string]any
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	if err := tg.Send(context.Background(), "ignored", "<b>A</b> is up"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if path != "/bot123:secret/sendMessage" {
		t.Fatalf("path=%q", path)
	}
	if payload["parse_mode"] != "HTML" || payload["chat_id"] != "42" || payload["text"] != "<b>A</b> is up" {
		t.Fatalf("payload=%v", payload)
	}
}

func TestTelegram_APIErrorDescription(t *testing.T) {
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	})
	err := tg.Send(context.Background(), "", "x")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("want API description in error, got %v", err)
	}
}

func TestTelegram_TransportErrorHidesToken(t *testing.T) {
	tg := NewTelegram("123:secret", "42")
	tg.BaseURL = "http://127.0.0.1:1"
	tg.Client = &http.Client{Timeout: time.Second}
	err := tg.Send(context.Background(), "", "x")
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), "secret") {
		t.Fatalf("token leaked in error: %v", err)
	}
}

func TestTelegram_DisabledAndNil(t *testing.T) {
	if NewTelegram("", "42") != nil || NewTelegram("tok", "") != nil {
		t.Fatalf("missing credentials should yield nil")
	}
	var nilTG *Telegram
	if err := nilTG.Send(context.Background(), "", "x"); err != ErrDisabled {
		t.Fatalf("nil Send: %v", err)
	}

	var calls int32
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	tg.Disable()
	if err := tg.Send(context.Background(), "", "x"); err != ErrDisabled {
		t.Fatalf("disabled Send: %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("disabled channel must not call the API")
	}
}

func TestHandshake_GetMe(t *testing.T) {
	var calls int32
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if !strings.HasSuffix(r.URL.Path, "/getMe") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if n < 2 {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	if err := Handshake(context.Background(), tg, 3, 0); err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls=%d want 2", calls)
	}
}

func TestHandshake_Exhausted(t *testing.T) {
	var calls int32
	tg := newTestTelegram(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	})
	if err := Handshake(context.Background(), tg, 3, 0); err == nil {
		t.Fatalf("expected handshake failure")
	}
	if calls != 3 {
		t.Fatalf("calls=%d want 3", calls)
	}
}
