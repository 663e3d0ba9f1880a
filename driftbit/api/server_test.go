package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(run Runner) *Server {
	if run == nil {
		run = func(ctx context.Context, cmd Command) (string, error) {
			return "ok: " + cmd.Name, nil
		}
	}
	return NewServer("secret", run)
}

func post(t *testing.T, s *Server, key, body string) (*http.Response, response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	resp, err := s.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp, payload
}

func TestCommandRequiresAPIKey(t *testing.T) {
	s := newTestServer(nil)
	body := `{"command":"balance","user_id":"u1"}`

	resp, payload := post(t, s, "", body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing key status = %d, want 401", resp.StatusCode)
	}
	if payload.Success {
		t.Error("missing key reported success")
	}

	resp, _ = post(t, s, "wrong", body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want 401", resp.StatusCode)
	}

	resp, payload = post(t, s, "secret", body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid key status = %d, want 200", resp.StatusCode)
	}
	if !payload.Success || payload.Response != "ok: balance" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestCommandValidatesPayload(t *testing.T) {
	s := newTestServer(nil)

	resp, _ := post(t, s, "secret", "{not json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", resp.StatusCode)
	}

	resp, _ = post(t, s, "secret", `{"command":"","user_id":"u1"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty command status = %d, want 400", resp.StatusCode)
	}

	resp, _ = post(t, s, "secret", `{"command":"work","user_id":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty user status = %d, want 400", resp.StatusCode)
	}
}

func TestGameplayErrorsTravelAsData(t *testing.T) {
	s := newTestServer(func(ctx context.Context, cmd Command) (string, error) {
		return "", fmt.Errorf("work is on cooldown for another 42s")
	})

	resp, payload := post(t, s, "secret", `{"command":"work","user_id":"u1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("gameplay failure status = %d, want 200", resp.StatusCode)
	}
	if payload.Success {
		t.Error("gameplay failure reported success")
	}
	if payload.Error != "work is on cooldown for another 42s" {
		t.Errorf("error = %q", payload.Error)
	}
}

func TestTimeoutIsAnInternalError(t *testing.T) {
	s := newTestServer(func(ctx context.Context, cmd Command) (string, error) {
		return "", context.DeadlineExceeded
	})

	resp, payload := post(t, s, "secret", `{"command":"slow","user_id":"u1"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("timeout status = %d, want 500", resp.StatusCode)
	}
	if payload.Success {
		t.Error("timeout reported success")
	}
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}
}
