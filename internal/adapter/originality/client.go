package originality

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/polkiloo/scribemart/internal/domain/model"
)

var (
	// ErrUnreadable means the checker cannot process the file; retrying will not help.
	ErrUnreadable = errors.New("file cannot be checked")
	// ErrDisabled is returned when no checker is configured.
	ErrDisabled = errors.New("originality checker disabled")
)

// TooManyRequestsError represents rate limiting signal from the checker.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Checker scores a submitted file for originality.
type Checker interface {
	Check(ctx context.Context, fileRef string) (*model.OriginalityResult, error)
}

// HTTPClient implements Checker via HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

type request struct {
	FileRef string `json:"file_ref"`
}

type response struct {
	Score   float64 `json:"score"`
	Flagged bool    `json:"flagged"`
}

// NewHTTPClient creates HTTP checker client with default timeout.
func NewHTTPClient(baseURL string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse originality url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("originality url must be absolute")
	}
	return &HTTPClient{
		baseURL: parsed,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Check submits the file reference and waits for the score.
func (c *HTTPClient) Check(ctx context.Context, fileRef string) (*model.OriginalityResult, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/api/checks")

	payload, err := json.Marshal(request{FileRef: fileRef})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var data response
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return nil, fmt.Errorf("decode originality response: %w", err)
		}
		return &model.OriginalityResult{Score: data.Score, Flagged: data.Flagged}, nil
	case http.StatusUnprocessableEntity, http.StatusNotFound:
		return nil, ErrUnreadable
	case http.StatusTooManyRequests:
		return nil, TooManyRequestsError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("originality request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("originality error: %s", resp.Status)
	}
}

// Disabled rejects every check.
type Disabled struct{}

func (Disabled) Check(context.Context, string) (*model.OriginalityResult, error) {
	return nil, ErrDisabled
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
