package search

import (
	"log"
	"time"
)

// Searcher is the transport the fetcher pages over. The transport owns
// transient-signal retries; a transient response here means its attempts
// were exhausted.
type Searcher interface {
	ExecuteWithRetry(guildID string, query Query, maxAttempts int) Response
}

// Progress reports chunk-fetch progress: ids found so far and the page
// number just scanned.
type Progress func(found, page int)

// Fetcher accumulates matching message ids across paginated search requests.
type Fetcher struct {
	client      Searcher
	pageSize    int           // results per request, capped at MaxLimit
	pageDelay   time.Duration // pacing between successful pages
	maxAttempts int           // attempts per offset, passed to the transport
	sleep       func(time.Duration)
}

// NewFetcher creates a fetcher paging with the given page size and pacing
// delay between successful requests.
func NewFetcher(client Searcher, pageSize int, pageDelay time.Duration) *Fetcher {
	if pageSize < MinLimit || pageSize > MaxLimit {
		pageSize = MaxLimit
	}
	return &Fetcher{
		client:      client,
		pageSize:    pageSize,
		pageDelay:   pageDelay,
		maxAttempts: 4,
		sleep:       time.Sleep,
	}
}

// FetchUpTo collects up to target deduplicated message ids matching the
// base filter, paging through offsets until the target is reached, a page
// yields no new ids, or the backend's own total is exhausted. Search errors
// and exhausted retries abort the fetch and return whatever was accumulated:
// a partial or empty result means "no more matches" to the caller, not a
// failure.
func (f *Fetcher) FetchUpTo(guildID string, base Query, target int, progress Progress) []string {
	ids := make([]string, 0, target)
	seen := make(map[string]bool, target)
	offset := 0

	for len(ids) < target {
		page := base
		page.Limit = f.pageSize
		page.Offset = offset

		resp := f.client.ExecuteWithRetry(guildID, page, f.maxAttempts)
		if resp.Signal != SignalOK {
			if resp.Signal == SignalError {
				log.Printf("[search] fetch aborted at offset %d (status %d): %s", offset, resp.Status, resp.Message)
			} else {
				log.Printf("[search] fetch gave up at offset %d after retries: %s", offset, resp.Signal)
			}
			break
		}

		targets := resp.Result.TargetMessages()
		if len(targets) == 0 {
			break
		}

		// Pagination is not guaranteed disjoint across pages while the
		// channel is being mutated, so merge through a seen-set.
		newCount := 0
		for _, msg := range targets {
			if seen[msg.ID] {
				continue
			}
			seen[msg.ID] = true
			ids = append(ids, msg.ID)
			newCount++
		}
		if newCount == 0 {
			break
		}

		offset += f.pageSize
		if progress != nil {
			progress(len(ids), offset/f.pageSize)
		}
		if offset >= resp.Result.TotalResults || offset > MaxOffset {
			break
		}

		f.sleep(f.pageDelay)
	}

	if len(ids) > target {
		ids = ids[:target]
	}
	return ids
}

// EstimateTotal reads the backend's total match count for a filter via a
// single-result request. The count is a point-in-time snapshot that can
// drift while a job runs; callers treat it as an estimate only.
func (f *Fetcher) EstimateTotal(guildID string, base Query) int {
	q := base
	q.Limit = 1
	q.Offset = 0

	resp := f.client.ExecuteWithRetry(guildID, q, f.maxAttempts)
	if resp.Signal != SignalOK {
		return 0
	}
	return resp.Result.TotalResults
}
