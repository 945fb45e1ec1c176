package sync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateFeedURL(t *testing.T) {
	cases := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https url", "https://airbnb.com/calendar/ical/123.ics", false},
		{"https with query", "https://booking.com/feed.ics?key=abc", false},
		{"plain http", "http://airbnb.com/feed.ics", true},
		{"no scheme", "airbnb.com/feed.ics", true},
		{"empty", "", true},
		{"scheme only", "https://", true},
		{"ftp", "ftp://example.com/feed.ics", true},
		{"surrounding whitespace", "  https://airbnb.com/feed.ics  ", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFeedURL(tc.url)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateFeedURL(%q) = %v, wantErr %v", tc.url, err, tc.wantErr)
			}
		})
	}
}

func TestFetchReturnsBody(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != DefaultConfig().UserAgent {
			t.Errorf("User-Agent = %q", got)
		}
		w.Write([]byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))
	}))
	defer server.Close()

	f := NewFetcher(DefaultConfig())
	f.httpClient = server.Client()

	body, err := f.Fetch(context.Background(), server.URL+"/feed.ics")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if body != "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n" {
		t.Errorf("body = %q", body)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetcher(DefaultConfig())
	f.httpClient = server.Client()

	_, err := f.Fetch(context.Background(), server.URL+"/feed.ics")
	if err == nil {
		t.Fatal("expected error for 403 response")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", fe.StatusCode)
	}
}

func TestFetchRejectsHTTPBeforeNetwork(t *testing.T) {
	f := NewFetcher(DefaultConfig())

	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/feed.ics")
	if err == nil {
		t.Fatal("expected validation error")
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.StatusCode != 0 {
		t.Errorf("validation failure should carry no status, got %d", fe.StatusCode)
	}
}
