package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetJSONHandles500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var v any
	err := getJSON(context.Background(), NewHTTPClient(2*time.Second), srv.URL, nil, &v)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusInternalServerError || !se.Temporary() {
		t.Fatalf("expected temporary 500, got %d", se.Code)
	}
}

func TestGetJSONHandles404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var v any
	err := getJSON(context.Background(), NewHTTPClient(2*time.Second), srv.URL, nil, &v)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusNotFound || se.Temporary() {
		t.Fatalf("expected permanent 404, got %d", se.Code)
	}
}

func TestGetJSONHandlesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
	}))
	defer srv.Close()

	var v any
	if err := getJSON(context.Background(), NewHTTPClient(200*time.Millisecond), srv.URL, nil, &v); err == nil {
		t.Fatal("expected timeout error, got nil")
	}
}

func TestGetJSONSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer header, got %q", got)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	var v struct{ OK bool }
	h := http.Header{}
	h.Set("Authorization", "Bearer tok")
	if err := getJSON(context.Background(), NewHTTPClient(time.Second), srv.URL, h, &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.OK {
		t.Fatal("expected ok=true")
	}
}

func TestGetJSONEmptyURL(t *testing.T) {
	var v any
	if err := getJSON(context.Background(), NewHTTPClient(time.Second), "", nil, &v); err == nil {
		t.Fatal("expected error for empty url")
	}
}
