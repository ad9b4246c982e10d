package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// ContentTypeJSON is the default content type of ExecuteJSON requests.
const ContentTypeJSON = "application/json"

// ExecuteJSON executes a request and decodes a successful JSON response into T.
//
// The request carries "Content-Type: application/json" unless a Header option
// overrides it. A non-2xx status yields *FailedRequest with the raw response;
// its body is buffered so it can still be read after the connection is released.
func ExecuteJSON[T any](ctx context.Context, e Executor, method, path string, body io.Reader, opts ...RequestOption) (T, error) {
	var payload T

	opts = append([]RequestOption{Header("Content-Type", ContentTypeJSON)}, opts...)

	resp, err := e.Execute(ctx, method, path, body, opts...)
	if err != nil {
		return payload, err
	}

	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return payload, &TransportError{Err: err}
	}

	if !IsSuccess(resp.StatusCode) {
		resp.Body = io.NopCloser(bytes.NewReader(data))
		return payload, &FailedRequest{Response: resp}
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, &DecodeError{Err: err}
	}

	return payload, nil
}

// IsSuccess reports whether status is a 2xx status code.
func IsSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}
