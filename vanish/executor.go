package vanish

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Outcome classifies a single deletion attempt.
type Outcome int

const (
	// Deleted means the message was removed by this call.
	Deleted Outcome = iota
	// AlreadyGone means the message no longer exists. The end state is the
	// same no matter who removed it, so this counts as success.
	AlreadyGone
	// Denied means the message could not be removed. Terminal for this
	// message only; the job carries on.
	Denied
)

// messageDeleter is the slice of discordgo.Session the executor needs.
type messageDeleter interface {
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Executor deletes single messages and classifies the result.
type Executor struct {
	session messageDeleter
	sleep   func(time.Duration)
}

// NewExecutor creates an executor deleting through the given session.
func NewExecutor(session messageDeleter) *Executor {
	return &Executor{session: session, sleep: time.Sleep}
}

// Delete removes one message. A rate-limited attempt is retried once after
// the signalled delay; a second throttle counts as Denied.
func (e *Executor) Delete(channelID, messageID string) Outcome {
	outcome, retryAfter := e.attempt(channelID, messageID)
	if retryAfter <= 0 {
		return outcome
	}

	log.Printf("[vanish] delete of %s rate limited, retrying in %s", messageID, retryAfter)
	e.sleep(retryAfter)
	outcome, _ = e.attempt(channelID, messageID)
	return outcome
}

// attempt performs one delete call. A non-zero retryAfter signals a
// throttled attempt that may be retried.
func (e *Executor) attempt(channelID, messageID string) (Outcome, time.Duration) {
	err := e.session.ChannelMessageDelete(channelID, messageID)
	if err == nil {
		return Deleted, 0
	}

	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return Denied, rateErr.RetryAfter
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return AlreadyGone, 0
		case http.StatusForbidden:
			return Denied, 0
		}
	}

	log.Printf("[vanish] failed to delete message %s in channel %s: %v", messageID, channelID, err)
	return Denied, 0
}
