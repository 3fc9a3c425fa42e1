package vanish

import (
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

// scriptedDeleter returns its scripted errors in order and records sleeps
// requested by the executor's retry.
type scriptedDeleter struct {
	errs  []error
	calls int
}

func (d *scriptedDeleter) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	err := d.errs[d.calls]
	d.calls++
	return err
}

func newTestExecutor(errs ...error) (*Executor, *scriptedDeleter, *[]time.Duration) {
	d := &scriptedDeleter{errs: errs}
	var sleeps []time.Duration
	e := NewExecutor(d)
	e.sleep = func(dur time.Duration) { sleeps = append(sleeps, dur) }
	return e, d, &sleeps
}

func restErr(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

func rateLimitErr(retryAfter time.Duration) error {
	return &discordgo.RateLimitError{
		RateLimit: &discordgo.RateLimit{
			TooManyRequests: &discordgo.TooManyRequests{RetryAfter: retryAfter},
		},
	}
}

func TestDeleteOutcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"success", nil, Deleted},
		{"not found counts as success", restErr(http.StatusNotFound), AlreadyGone},
		{"forbidden", restErr(http.StatusForbidden), Denied},
		{"server error", restErr(http.StatusInternalServerError), Denied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, d, sleeps := newTestExecutor(tt.err)
			if got := e.Delete("c", "m"); got != tt.want {
				t.Fatalf("Delete() = %v, want %v", got, tt.want)
			}
			if d.calls != 1 {
				t.Errorf("made %d calls, want 1", d.calls)
			}
			if len(*sleeps) != 0 {
				t.Errorf("slept %v, want no sleeps", *sleeps)
			}
		})
	}
}

func TestDeleteRetriesOnceAfterRateLimit(t *testing.T) {
	e, d, sleeps := newTestExecutor(rateLimitErr(2*time.Second), nil)

	if got := e.Delete("c", "m"); got != Deleted {
		t.Fatalf("Delete() = %v, want Deleted after retry", got)
	}
	if d.calls != 2 {
		t.Errorf("made %d calls, want 2", d.calls)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != 2*time.Second {
		t.Errorf("sleeps = %v, want one 2s wait", *sleeps)
	}
}

func TestDeleteRateLimitedTwiceIsDenied(t *testing.T) {
	e, d, _ := newTestExecutor(rateLimitErr(time.Second), rateLimitErr(time.Second))

	if got := e.Delete("c", "m"); got != Denied {
		t.Fatalf("Delete() = %v, want Denied after second throttle", got)
	}
	if d.calls != 2 {
		t.Errorf("made %d calls, want 2 (no third attempt)", d.calls)
	}
}

func TestDeleteRetryFindsMessageGone(t *testing.T) {
	e, _, _ := newTestExecutor(rateLimitErr(time.Second), restErr(http.StatusNotFound))

	if got := e.Delete("c", "m"); got != AlreadyGone {
		t.Fatalf("Delete() = %v, want AlreadyGone", got)
	}
}
