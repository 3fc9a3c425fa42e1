package search

import (
	"testing"
	"time"

	"discord-vanish/models"
)

// fakeSearcher replays a scripted sequence of responses and records the
// queries it was asked. A transient response stands for a request whose
// retries the transport already exhausted.
type fakeSearcher struct {
	responses []Response
	queries   []Query
	attempts  []int
}

func (f *fakeSearcher) ExecuteWithRetry(guildID string, query Query, maxAttempts int) Response {
	f.queries = append(f.queries, query)
	f.attempts = append(f.attempts, maxAttempts)
	if len(f.responses) == 0 {
		return Response{Signal: SignalOK, Result: &models.SearchResult{}}
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp
}

func testFetcher(fake *fakeSearcher) *Fetcher {
	f := NewFetcher(fake, 25, 0)
	f.sleep = func(time.Duration) {}
	return f
}

// page builds a SignalOK response whose hit groups are lone target messages.
func page(total int, ids ...string) Response {
	result := &models.SearchResult{TotalResults: total}
	for _, id := range ids {
		result.Messages = append(result.Messages, []models.SearchMessage{{ID: id}})
	}
	return Response{Signal: SignalOK, Result: result}
}

func seq(prefix string, from, to int) []string {
	var ids []string
	for i := from; i < to; i++ {
		ids = append(ids, prefix+string(rune('a'+i%26))+string(rune('0'+i/26)))
	}
	return ids
}

func TestFetchUpToPagesUntilTotal(t *testing.T) {
	first := seq("m", 0, 25)
	second := seq("n", 0, 22)
	fake := &fakeSearcher{responses: []Response{
		page(47, first...),
		page(47, second...),
	}}
	f := testFetcher(fake)

	ids := f.FetchUpTo("g", Query{AuthorIDs: []string{"u1"}}, 2000, nil)

	if len(ids) != 47 {
		t.Fatalf("got %d ids, want 47", len(ids))
	}
	// The total ceiling stops paging after the second request; a third
	// request would only re-scan a shrinking window.
	if len(fake.queries) != 2 {
		t.Fatalf("made %d requests, want 2", len(fake.queries))
	}
	if fake.queries[0].Offset != 0 || fake.queries[1].Offset != 25 {
		t.Errorf("offsets = %d, %d; want 0, 25", fake.queries[0].Offset, fake.queries[1].Offset)
	}
}

func TestFetchUpToDeduplicatesAcrossPages(t *testing.T) {
	// Deletions shift the window between requests, so page two re-serves
	// some of page one's ids.
	first := seq("m", 0, 25)
	overlap := append(first[20:25:25], seq("n", 0, 20)...)
	fake := &fakeSearcher{responses: []Response{
		page(60, first...),
		page(60, overlap...),
		page(60), // empty page ends the walk
	}}
	f := testFetcher(fake)

	ids := f.FetchUpTo("g", Query{}, 2000, nil)

	if len(ids) != 45 {
		t.Fatalf("got %d ids, want 45 after dedup", len(ids))
	}
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %q in result", id)
		}
		seen[id] = true
	}
}

func TestFetchUpToStopsWhenPageAddsNothing(t *testing.T) {
	ids25 := seq("m", 0, 25)
	fake := &fakeSearcher{responses: []Response{
		page(100, ids25...),
		page(100, ids25...), // all repeats
	}}
	f := testFetcher(fake)

	ids := f.FetchUpTo("g", Query{}, 2000, nil)
	if len(ids) != 25 {
		t.Fatalf("got %d ids, want 25", len(ids))
	}
	if len(fake.queries) != 2 {
		t.Fatalf("made %d requests, want 2", len(fake.queries))
	}
}

func TestFetchUpToTrimsToTarget(t *testing.T) {
	fake := &fakeSearcher{responses: []Response{
		page(25, seq("m", 0, 25)...),
	}}
	f := testFetcher(fake)

	ids := f.FetchUpTo("g", Query{}, 10, nil)
	if len(ids) != 10 {
		t.Fatalf("got %d ids, want 10", len(ids))
	}
}

func TestFetchUpToDelegatesRetriesToTransport(t *testing.T) {
	fake := &fakeSearcher{responses: []Response{
		page(47, seq("m", 0, 25)...),
		page(47, seq("n", 0, 22)...),
	}}
	f := testFetcher(fake)

	f.FetchUpTo("g", Query{}, 2000, nil)
	for _, attempts := range fake.attempts {
		if attempts != f.maxAttempts {
			t.Fatalf("transport got %d attempts, want %d", attempts, f.maxAttempts)
		}
	}
}

func TestFetchUpToGivesUpWhenRetriesExhausted(t *testing.T) {
	fake := &fakeSearcher{responses: []Response{
		page(50, seq("m", 0, 25)...),
		{Signal: SignalRateLimited, RetryAfter: time.Second},
	}}
	f := testFetcher(fake)

	ids := f.FetchUpTo("g", Query{}, 2000, nil)
	if len(ids) != 25 {
		t.Fatalf("got %d ids, want the 25 collected before retries ran out", len(ids))
	}
}

func TestFetchUpToReturnsPartialOnError(t *testing.T) {
	fake := &fakeSearcher{responses: []Response{
		page(50, seq("m", 0, 25)...),
		{Signal: SignalError, Status: 500, Message: "boom"},
	}}
	f := testFetcher(fake)

	ids := f.FetchUpTo("g", Query{}, 2000, nil)
	if len(ids) != 25 {
		t.Fatalf("got %d ids, want the 25 collected before the error", len(ids))
	}
}

func TestFetchUpToReportsProgress(t *testing.T) {
	fake := &fakeSearcher{responses: []Response{
		page(47, seq("m", 0, 25)...),
		page(47, seq("n", 0, 22)...),
	}}
	f := testFetcher(fake)

	var found, pages []int
	f.FetchUpTo("g", Query{}, 2000, func(n, page int) {
		found = append(found, n)
		pages = append(pages, page)
	})

	if len(found) != 2 || found[0] != 25 || found[1] != 47 {
		t.Errorf("found = %v, want [25 47]", found)
	}
	if len(pages) != 2 || pages[0] != 1 || pages[1] != 2 {
		t.Errorf("pages = %v, want [1 2]", pages)
	}
}

func TestEstimateTotal(t *testing.T) {
	fake := &fakeSearcher{responses: []Response{
		page(1234, "m"),
	}}
	f := testFetcher(fake)

	if got := f.EstimateTotal("g", Query{AuthorIDs: []string{"u1"}}); got != 1234 {
		t.Fatalf("EstimateTotal() = %d, want 1234", got)
	}
	if fake.queries[0].Limit != 1 {
		t.Errorf("estimate limit = %d, want 1", fake.queries[0].Limit)
	}
}

func TestEstimateTotalErrorMeansZero(t *testing.T) {
	fake := &fakeSearcher{responses: []Response{
		{Signal: SignalError, Status: 403},
	}}
	f := testFetcher(fake)

	if got := f.EstimateTotal("g", Query{}); got != 0 {
		t.Fatalf("EstimateTotal() = %d, want 0", got)
	}
}

func TestTopAuthorsRanking(t *testing.T) {
	result := &models.SearchResult{TotalResults: 5}
	hits := []struct{ id, author, name string }{
		{"1", "u1", "alice"},
		{"2", "u2", "bob"},
		{"3", "u1", "alice"},
		{"4", "u3", "carol"},
		{"5", "u1", "alice"},
	}
	for _, h := range hits {
		result.Messages = append(result.Messages, []models.SearchMessage{{
			ID:     h.id,
			Author: models.SearchAuthor{ID: h.author, Username: h.name},
		}})
	}
	fake := &fakeSearcher{responses: []Response{{Signal: SignalOK, Result: result}}}
	f := testFetcher(fake)

	top := f.TopAuthors("g", "word", 1000, 2)
	if top.TotalResults != 5 || top.Analyzed != 5 {
		t.Fatalf("total = %d, analyzed = %d; want 5, 5", top.TotalResults, top.Analyzed)
	}
	if len(top.Authors) != 2 {
		t.Fatalf("got %d authors, want 2", len(top.Authors))
	}
	if top.Authors[0].AuthorID != "u1" || top.Authors[0].Count != 3 {
		t.Errorf("first = %+v, want u1 with 3", top.Authors[0])
	}
	// u2 and u3 tie at 1; the lower id wins.
	if top.Authors[1].AuthorID != "u2" {
		t.Errorf("second = %+v, want u2 on the tiebreak", top.Authors[1])
	}
}
