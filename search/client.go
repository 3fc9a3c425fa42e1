package search

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"discord-vanish/models"
)

const defaultBaseURL = "https://discord.com/api/v9"

// defaultRetryAfter is used when a transient response carries no usable delay.
const defaultRetryAfter = 5 * time.Second

// Signal classifies the outcome of a single search request.
type Signal int

const (
	// SignalOK means the page was served and Result is populated.
	SignalOK Signal = iota
	// SignalIndexPending means the guild's search index is still being
	// built (202); the request was well-formed but cannot be served yet.
	SignalIndexPending
	// SignalRateLimited means the backend throttled the request (429).
	SignalRateLimited
	// SignalError covers every other failure; not retried by this layer.
	SignalError
)

func (s Signal) String() string {
	switch s {
	case SignalOK:
		return "ok"
	case SignalIndexPending:
		return "index pending"
	case SignalRateLimited:
		return "rate limited"
	default:
		return "error"
	}
}

// Response is the classified result of one search call. Result is set only
// for SignalOK; RetryAfter only for the transient signals; Status and
// Message only for SignalError (Status is 0 on a network failure).
type Response struct {
	Signal     Signal
	Result     *models.SearchResult
	RetryAfter time.Duration
	Status     int
	Message    string
}

// Client talks to the guild message search endpoint. discordgo does not
// expose this endpoint, so requests are issued directly over HTTP with the
// user token the endpoint requires.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	sleep      func(time.Duration)
}

// NewClient creates a search client authenticated with the given user token.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		sleep:      time.Sleep,
	}
}

// Execute performs exactly one search request against the guild and
// classifies the response. It never retries; retry policy belongs to the
// caller so that each caller can apply its own pacing.
func (c *Client) Execute(guildID string, query Query) Response {
	u := fmt.Sprintf("%s/guilds/%s/messages/search?%s", c.baseURL, guildID, query.Values().Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return Response{Signal: SignalError, Message: err.Error()}
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{Signal: SignalError, Message: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result models.SearchResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return Response{
				Signal:  SignalError,
				Status:  resp.StatusCode,
				Message: fmt.Sprintf("failed to decode search response: %v", err),
			}
		}
		return Response{Signal: SignalOK, Result: &result}

	case http.StatusAccepted:
		// Index not ready; the body carries the suggested delay.
		var body struct {
			RetryAfter float64 `json:"retry_after"`
		}
		retryAfter := defaultRetryAfter
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.RetryAfter > 0 {
			retryAfter = time.Duration(body.RetryAfter * float64(time.Second))
		}
		return Response{Signal: SignalIndexPending, RetryAfter: retryAfter}

	case http.StatusTooManyRequests:
		return Response{Signal: SignalRateLimited, RetryAfter: retryAfterOf(resp)}

	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{Signal: SignalError, Status: resp.StatusCode, Message: string(detail)}
	}
}

// ExecuteWithRetry retries transient signals up to maxAttempts times,
// sleeping the signalled delay between attempts. Errors and successes are
// returned immediately.
func (c *Client) ExecuteWithRetry(guildID string, query Query, maxAttempts int) Response {
	var resp Response
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp = c.Execute(guildID, query)
		if resp.Signal != SignalIndexPending && resp.Signal != SignalRateLimited {
			return resp
		}
		if attempt < maxAttempts-1 {
			log.Printf("[search] %s, waiting %s before retry", resp.Signal, resp.RetryAfter)
			c.sleep(resp.RetryAfter)
		}
	}
	return resp
}

// retryAfterOf reads the throttle delay from the rate-limit header, falling
// back to the response body.
func retryAfterOf(resp *http.Response) time.Duration {
	if h := resp.Header.Get("X-RateLimit-Reset-After"); h != "" {
		if secs, err := strconv.ParseFloat(h, 64); err == nil && secs > 0 {
			return time.Duration(secs * float64(time.Second))
		}
	}
	var body struct {
		RetryAfter float64 `json:"retry_after"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.RetryAfter > 0 {
		return time.Duration(body.RetryAfter * float64(time.Second))
	}
	return defaultRetryAfter
}
