package originality

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/polkiloo/scribemart/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewHTTPClientValidatesURL(t *testing.T) {
	if _, err := NewHTTPClient("://bad-url", testLogger()); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if _, err := NewHTTPClient("/relative", testLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestCheckReturnsScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/base/api/checks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body request
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.FileRef != "files/essay.docx" {
			t.Errorf("unexpected body %+v (%v)", body, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"score": 93.5, "flagged": true}`))
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL+"/base", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	result, err := client.Check(context.Background(), "files/essay.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Score != 93.5 || !result.Flagged {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckHandlesSpecialStatuses(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		header     http.Header
		check      func(t *testing.T, err error)
	}{
		{
			name:       "unreadable",
			statusCode: http.StatusUnprocessableEntity,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrUnreadable) {
					t.Fatalf("expected ErrUnreadable, got %v", err)
				}
			},
		},
		{
			name:       "too many requests",
			statusCode: http.StatusTooManyRequests,
			header:     http.Header{"Retry-After": []string{"7"}},
			check: func(t *testing.T, err error) {
				var tm TooManyRequestsError
				if !errors.As(err, &tm) || tm.RetryAfter != 7*time.Second {
					t.Fatalf("expected TooManyRequestsError(7s), got %v", err)
				}
			},
		},
		{
			name:       "server error",
			statusCode: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				if err == nil || errors.Is(err, ErrUnreadable) {
					t.Fatalf("expected generic error, got %v", err)
				}
			},
		},
		{
			name:       "broken body",
			statusCode: http.StatusOK,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Fatal("expected decode error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for key, values := range tt.header {
					for _, v := range values {
						w.Header().Add(key, v)
					}
				}
				w.WriteHeader(tt.statusCode)
				if tt.statusCode == http.StatusOK {
					_, _ = w.Write([]byte("{"))
				}
			}))
			defer srv.Close()

			client, err := NewHTTPClient(srv.URL, testLogger())
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}
			_, err = client.Check(context.Background(), "f")
			tt.check(t, err)
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter(""); d != 5*time.Second {
		t.Fatalf("expected default, got %s", d)
	}
	if d := parseRetryAfter("3"); d != 3*time.Second {
		t.Fatalf("expected 3s, got %s", d)
	}
	if d := parseRetryAfter("garbage"); d != 5*time.Second {
		t.Fatalf("expected default for garbage, got %s", d)
	}
	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(future); d <= 0 || d > time.Minute {
		t.Fatalf("expected positive duration up to a minute, got %s", d)
	}
}

func TestNewCheckerUsesConfig(t *testing.T) {
	checker, err := newChecker(checkerParams{Config: &config.Config{OriginalityAddress: "http://example.com"}, Logger: testLogger()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := checker.(*HTTPClient); !ok {
		t.Fatalf("expected *HTTPClient, got %T", checker)
	}

	checker, err = newChecker(checkerParams{Config: &config.Config{}, Logger: testLogger()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := checker.Check(context.Background(), "f"); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected disabled checker, got %v", err)
	}
}
