package simpleoauth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/drupalkit/drupalkit/pkg/auth"
	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

// tokenServer serves /oauth/token and an authenticated /api resource.
type tokenServer struct {
	*httptest.Server

	tokenCalls atomic.Int32

	mu         sync.Mutex
	status     int
	response   TokenResponse
	lastForm   string
	lastHeader http.Header
	apiAuth    []string
}

func newTokenServer(t *testing.T) *tokenServer {
	t.Helper()

	ts := &tokenServer{
		status: http.StatusOK,
		response: TokenResponse{
			TokenType:   "Bearer",
			ExpiresIn:   300,
			AccessToken: "token-1",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(TokenPath, func(w http.ResponseWriter, r *http.Request) {
		n := ts.tokenCalls.Add(1)
		body, _ := io.ReadAll(r.Body)

		ts.mu.Lock()
		ts.lastForm = string(body)
		ts.lastHeader = r.Header.Clone()
		status := ts.status
		resp := ts.response
		ts.mu.Unlock()

		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		if resp.AccessToken == "" {
			resp.AccessToken = fmt.Sprintf("token-%d", n)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.apiAuth = append(ts.apiAuth, r.Header.Get("Authorization"))
		ts.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) setStatus(status int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.status = status
}

func (ts *tokenServer) setResponse(resp TokenResponse) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.response = resp
}

func (ts *tokenServer) form() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastForm
}

func (ts *tokenServer) header() http.Header {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.lastHeader
}

func (ts *tokenServer) authorizations() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.apiAuth...)
}

// slotHooks consults a strategy slot for every non-anonymous request.
type slotHooks struct {
	slot   *auth.Slot
	client httpclient.Executor
}

func (h *slotHooks) BeforeRequest(req *http.Request, path string, opts *httpclient.RequestOptions) (*http.Request, error) {
	if opts.Anonymous {
		return req, nil
	}
	return h.slot.Decorate(req.Context(), req, path, opts, h.client)
}

func (h *slotHooks) AfterRequest(resp *http.Response) (*http.Response, error) {
	return resp, nil
}

// newAuthedPipeline returns a pipeline whose slot holds strategy.
func newAuthedPipeline(baseURL string, strategy auth.Strategy) *httpclient.Pipeline {
	hooks := &slotHooks{slot: auth.NewSlot(strategy)}
	p := &httpclient.Pipeline{
		Client:  http.DefaultClient,
		BaseURL: baseURL,
		Hooks:   hooks,
	}
	hooks.client = p
	return p
}
