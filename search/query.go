package search

import (
	"net/url"
	"strconv"
	"unicode/utf8"
)

// Documented limits of the guild message search endpoint. Out-of-range
// values are clamped rather than rejected, so a caller can never build an
// invalid request through this layer.
const (
	MaxContentLength = 1024
	MaxAuthorIDs     = 1521
	MaxMentionIDs    = 1521
	MaxChannelIDs    = 500
	MinLimit         = 1
	MaxLimit         = 25
	MaxOffset        = 9975
)

// Sort keys and orders accepted by the endpoint.
const (
	SortByRelevance = "relevance"
	SortByTimestamp = "timestamp"
	SortOrderAsc    = "asc"
	SortOrderDesc   = "desc"
)

// Query describes one search filter. Every field is optional; zero-valued
// fields are omitted from the encoded request entirely, never sent as null.
type Query struct {
	Content string

	AuthorIDs       []string
	AuthorTypes     []string // user, bot, webhook
	Mentions        []string
	MentionEveryone *bool

	ChannelIDs []string
	MinID      string
	MaxID      string
	Pinned     *bool

	Has                  []string // link, embed, file, image, video, sound, sticker, poll
	IncludeNSFW          *bool
	AttachmentExtensions []string
	AttachmentFilename   string
	EmbedTypes           []string
	LinkHostnames        []string

	SortBy    string
	SortOrder string
	Limit     int // results per page; 0 leaves the backend default
	Offset    int
}

// Values encodes the query into wire parameters, clamping every bounded
// field to the endpoint's documented maximums.
func (q Query) Values() url.Values {
	params := url.Values{}

	if q.Content != "" {
		content := q.Content
		// The cap counts characters; a byte slice could split a rune and
		// send invalid UTF-8.
		if utf8.RuneCountInString(content) > MaxContentLength {
			content = string([]rune(content)[:MaxContentLength])
		}
		params.Set("content", content)
	}

	for _, id := range capList(q.AuthorIDs, MaxAuthorIDs) {
		params.Add("author_id", id)
	}
	for _, t := range q.AuthorTypes {
		params.Add("author_type", t)
	}
	for _, id := range capList(q.Mentions, MaxMentionIDs) {
		params.Add("mentions", id)
	}
	if q.MentionEveryone != nil {
		params.Set("mention_everyone", strconv.FormatBool(*q.MentionEveryone))
	}

	for _, id := range capList(q.ChannelIDs, MaxChannelIDs) {
		params.Add("channel_id", id)
	}
	if q.MinID != "" {
		params.Set("min_id", q.MinID)
	}
	if q.MaxID != "" {
		params.Set("max_id", q.MaxID)
	}
	if q.Pinned != nil {
		params.Set("pinned", strconv.FormatBool(*q.Pinned))
	}

	for _, h := range q.Has {
		params.Add("has", h)
	}
	if q.IncludeNSFW != nil {
		params.Set("include_nsfw", strconv.FormatBool(*q.IncludeNSFW))
	}
	for _, ext := range q.AttachmentExtensions {
		params.Add("attachment_extension", ext)
	}
	if q.AttachmentFilename != "" {
		params.Set("attachment_filename", q.AttachmentFilename)
	}
	for _, t := range q.EmbedTypes {
		params.Add("embed_type", t)
	}
	for _, h := range q.LinkHostnames {
		params.Add("link_hostname", h)
	}

	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	if q.SortOrder != "" {
		params.Set("sort_order", q.SortOrder)
	}
	if q.Limit != 0 {
		params.Set("limit", strconv.Itoa(clamp(q.Limit, MinLimit, MaxLimit)))
	}
	if q.Offset != 0 {
		params.Set("offset", strconv.Itoa(clamp(q.Offset, 0, MaxOffset)))
	}

	return params
}

func capList(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
