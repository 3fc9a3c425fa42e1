package search

import (
	"sort"
)

// AuthorCount is one row of a TopAuthors leaderboard.
type AuthorCount struct {
	AuthorID   string
	AuthorName string
	Count      int
}

// TopAuthorsResult summarizes an author leaderboard scan.
type TopAuthorsResult struct {
	TotalResults int // the backend's total match count for the word
	Analyzed     int // how many of those were actually scanned
	Authors      []AuthorCount
}

// TopAuthors ranks the authors of messages matching a content search,
// scanning at most maxMessages of the matches and returning the topN
// authors by message count.
func (f *Fetcher) TopAuthors(guildID, content string, maxMessages, topN int) TopAuthorsResult {
	counts := make(map[string]int)
	names := make(map[string]string)
	base := Query{Content: content}

	result := TopAuthorsResult{}
	offset := 0

	for {
		page := base
		page.Limit = f.pageSize
		page.Offset = offset

		resp := f.client.ExecuteWithRetry(guildID, page, f.maxAttempts)
		if resp.Signal != SignalOK {
			break
		}
		result.TotalResults = resp.Result.TotalResults

		targets := resp.Result.TargetMessages()
		if len(targets) == 0 {
			break
		}
		for _, msg := range targets {
			counts[msg.Author.ID]++
			if _, ok := names[msg.Author.ID]; !ok {
				names[msg.Author.ID] = msg.Author.Username
			}
		}
		result.Analyzed += len(targets)

		offset += f.pageSize
		if result.Analyzed >= maxMessages || offset >= resp.Result.TotalResults || offset > MaxOffset {
			break
		}
		f.sleep(f.pageDelay)
	}

	result.Authors = make([]AuthorCount, 0, len(counts))
	for id, count := range counts {
		result.Authors = append(result.Authors, AuthorCount{AuthorID: id, AuthorName: names[id], Count: count})
	}
	sort.Slice(result.Authors, func(i, j int) bool {
		if result.Authors[i].Count != result.Authors[j].Count {
			return result.Authors[i].Count > result.Authors[j].Count
		}
		return result.Authors[i].AuthorID < result.Authors[j].AuthorID
	})
	if len(result.Authors) > topN {
		result.Authors = result.Authors[:topN]
	}
	return result
}
