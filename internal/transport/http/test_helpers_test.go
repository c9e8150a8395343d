package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/havenchat/haven-server/internal/auth"
	"github.com/havenchat/haven-server/internal/realtime"
	"github.com/havenchat/haven-server/internal/service/friends"
	"github.com/havenchat/haven-server/internal/store"
	"github.com/havenchat/haven-server/internal/store/sqlite"
)

type testServer struct {
	ts    *httptest.Server
	store store.Store
}

func startTestServer(t *testing.T, seeds ...realtime.SeedRoom) *testServer {
	t.Helper()

	st, err := sqlite.New(filepath.Join(t.TempDir(), "haven.db"))
	if err != nil {
		t.Fatalf("create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := zerolog.Nop()
	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	deps := Deps{
		Store:       st,
		AuthService: auth.NewService(st, jwtConfig),
		Friends:     friends.New(st),
		Engine:      realtime.NewEngine(st, seeds, 50, &logger),
	}

	ts := httptest.NewServer(NewRouter(deps, &logger))
	t.Cleanup(ts.Close)

	return &testServer{ts: ts, store: st}
}

// doJSON issues a request with an optional JSON body and bearer token, and
// decodes the JSON response into out (skipped when out is nil).
func (s *testServer) doJSON(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.ts.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// registerUser registers a user through the API and returns the token.
func (s *testServer) registerUser(t *testing.T, username string) string {
	t.Helper()

	var resp AuthResponse
	status := s.doJSON(t, http.MethodPost, "/api/register", "",
		RegisterRequest{Username: username, Password: "password123"}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("register %s: status %d", username, status)
	}
	return resp.Token
}
