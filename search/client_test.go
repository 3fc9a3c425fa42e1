package search

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testClient points a client at a stub server and records its sleeps instead
// of actually waiting.
func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var sleeps []time.Duration
	c := NewClient("token")
	c.baseURL = srv.URL
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return c, &sleeps
}

func TestExecuteOK(t *testing.T) {
	var gotPath, gotAuth string
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{
			"total_results": 2,
			"messages": [
				[{"id": "10"}, {"id": "11", "author": {"id": "u1", "username": "alice"}}, {"id": "12"}],
				[{"id": "20", "author": {"id": "u2", "username": "bob"}}]
			]
		}`))
	})

	resp := c.Execute("guild1", Query{AuthorIDs: []string{"u1"}})
	if resp.Signal != SignalOK {
		t.Fatalf("signal = %v, want ok", resp.Signal)
	}
	if gotPath != "/guilds/guild1/messages/search" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "token" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if resp.Result.TotalResults != 2 {
		t.Errorf("total_results = %d, want 2", resp.Result.TotalResults)
	}

	targets := resp.Result.TargetMessages()
	if len(targets) != 2 || targets[0].ID != "11" || targets[1].ID != "20" {
		t.Errorf("targets = %v", targets)
	}
	if targets[0].Author.Username != "alice" {
		t.Errorf("author = %q, want alice", targets[0].Author.Username)
	}
}

func TestExecuteIndexPending(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"retry_after": 2.5}`))
	})

	resp := c.Execute("g", Query{})
	if resp.Signal != SignalIndexPending {
		t.Fatalf("signal = %v, want index pending", resp.Signal)
	}
	if want := 2500 * time.Millisecond; resp.RetryAfter != want {
		t.Errorf("retry after = %v, want %v", resp.RetryAfter, want)
	}
}

func TestExecuteRateLimitedHeaderWins(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Reset-After", "7.5")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"retry_after": 1.0}`))
	})

	resp := c.Execute("g", Query{})
	if resp.Signal != SignalRateLimited {
		t.Fatalf("signal = %v, want rate limited", resp.Signal)
	}
	if want := 7500 * time.Millisecond; resp.RetryAfter != want {
		t.Errorf("retry after = %v, want %v (header over body)", resp.RetryAfter, want)
	}
}

func TestExecuteRateLimitedBodyFallback(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"retry_after": 3}`))
	})

	resp := c.Execute("g", Query{})
	if want := 3 * time.Second; resp.RetryAfter != want {
		t.Errorf("retry after = %v, want %v", resp.RetryAfter, want)
	}
}

func TestExecuteServerError(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "Missing Access"}`))
	})

	resp := c.Execute("g", Query{})
	if resp.Signal != SignalError {
		t.Fatalf("signal = %v, want error", resp.Signal)
	}
	if resp.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.Status)
	}
	if resp.Message == "" {
		t.Error("message is empty, want response body")
	}
}

func TestExecuteNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listening anymore

	c := NewClient("token")
	c.baseURL = srv.URL

	resp := c.Execute("g", Query{})
	if resp.Signal != SignalError {
		t.Fatalf("signal = %v, want error", resp.Signal)
	}
	if resp.Status != 0 {
		t.Errorf("status = %d, want 0 for a network failure", resp.Status)
	}
}

func TestExecuteWithRetryEventualSuccess(t *testing.T) {
	calls := 0
	c, sleeps := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.Header().Set("X-RateLimit-Reset-After", "5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"total_results": 0, "messages": []}`))
	})

	resp := c.ExecuteWithRetry("g", Query{}, 5)
	if resp.Signal != SignalOK {
		t.Fatalf("signal = %v, want ok", resp.Signal)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	var total time.Duration
	for _, d := range *sleeps {
		total += d
	}
	if want := 10 * time.Second; total != want {
		t.Errorf("slept %v across retries, want %v", total, want)
	}
}

func TestExecuteWithRetryExhausted(t *testing.T) {
	calls := 0
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	})

	resp := c.ExecuteWithRetry("g", Query{}, 3)
	if resp.Signal != SignalIndexPending {
		t.Fatalf("signal = %v, want index pending after exhaustion", resp.Signal)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
