package models

// SearchAuthor is the author block attached to a search hit.
type SearchAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// SearchAttachment summarizes one attachment on a search hit.
type SearchAttachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int    `json:"size"`
}

// SearchEmbed summarizes one embed on a search hit.
type SearchEmbed struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// SearchMessage is one message returned by the guild search endpoint.
// Instances are only ever constructed by decoding a search response.
type SearchMessage struct {
	ID          string             `json:"id"`
	ChannelID   string             `json:"channel_id"`
	Author      SearchAuthor       `json:"author"`
	Content     string             `json:"content"`
	Timestamp   string             `json:"timestamp"`
	Attachments []SearchAttachment `json:"attachments"`
	Embeds      []SearchEmbed      `json:"embeds"`
}

// SearchResult is one page of search results. Messages is a list of hit
// groups: each inner slice is a context window (context, target, context)
// around one matched message.
type SearchResult struct {
	TotalResults int               `json:"total_results"`
	Messages     [][]SearchMessage `json:"messages"`
	Threads      []SearchThread    `json:"threads"`
	Members      []SearchMember    `json:"members"`
	AnalyticsID  string            `json:"analytics_id"`
}

// SearchThread is an auxiliary thread entry in a search response.
type SearchThread struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

// SearchMember is an auxiliary member entry in a search response.
type SearchMember struct {
	UserID string `json:"user_id"`
	Nick   string `json:"nick"`
}

// TargetMessages extracts the actual matched message from each hit group.
// The target is the middle element of the group; the neighbors are context
// returned for display only.
func (r *SearchResult) TargetMessages() []SearchMessage {
	targets := make([]SearchMessage, 0, len(r.Messages))
	for _, group := range r.Messages {
		if len(group) == 0 {
			continue
		}
		targets = append(targets, group[len(group)/2])
	}
	return targets
}
