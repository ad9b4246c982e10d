package secrets

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
)

// DebugLogger logs HTTP traffic at debug level with secrets masked.
type DebugLogger struct {
	logger  *slog.Logger
	masking *Masking
}

// NewDebugLogger creates a debug logger. A nil logger uses slog.Default().
func NewDebugLogger(logger *slog.Logger, masking *Masking) *DebugLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugLogger{
		logger:  logger,
		masking: masking,
	}
}

// LogRequest logs req. The body is read and restored.
func (l *DebugLogger) LogRequest(req *http.Request) error {
	body, err := drain(&req.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	l.logger.Debug("HTTP request",
		"method", req.Method,
		"url", req.URL.String(),
		"headers", formatHeaders(MaskHeaders(req.Header, l.masking)),
		"body", l.maskBody(body, req.Header.Get("Content-Type")))
	return nil
}

// LogResponse logs resp. The body is read and restored.
func (l *DebugLogger) LogResponse(resp *http.Response) error {
	if resp == nil {
		return nil
	}

	body, err := drain(&resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	l.logger.Debug("HTTP response",
		"status", resp.Status,
		"headers", formatHeaders(MaskHeaders(resp.Header, l.masking)),
		"body", l.maskBody(body, resp.Header.Get("Content-Type")))
	return nil
}

// maskBody masks secrets in a body based on content type.
func (l *DebugLogger) maskBody(body []byte, contentType string) string {
	switch {
	case len(body) == 0:
		return ""
	case strings.Contains(contentType, "json"):
		return string(MaskJSON(body, l.masking))
	case strings.Contains(contentType, "x-www-form-urlencoded"):
		return MaskForm(string(body), l.masking)
	default:
		return string(body)
	}
}

// drain reads *rc fully and replaces it with an in-memory copy.
func drain(rc *io.ReadCloser) ([]byte, error) {
	if *rc == nil || *rc == http.NoBody {
		return nil, nil
	}

	data, err := io.ReadAll(*rc)
	_ = (*rc).Close()
	if err != nil {
		return nil, err
	}

	*rc = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

// formatHeaders formats headers for display.
func formatHeaders(headers http.Header) string {
	if len(headers) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		values := headers[key]
		if len(values) == 1 {
			parts = append(parts, fmt.Sprintf("%q: %q", key, values[0]))
		} else {
			parts = append(parts, fmt.Sprintf("%q: %v", key, values))
		}
	}

	return "{" + strings.Join(parts, ", ") + "}"
}
