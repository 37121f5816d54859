// Package history derives display-ready lists from the conversation
// collection: tab filtering, text search, sorting, and recency bucketing. It
// is a pure view over a snapshot; it holds no state of its own.
package history

import (
	"sort"
	"strings"
	"time"

	"github.com/fitstack/coach-web-ui/internal/models"
)

// Tab selects which subset of conversations the list shows.
type Tab string

// Sort selects the ordering of the list.
type Sort string

const (
	// TabAll keeps every conversation.
	TabAll Tab = "all"
	// TabPinned keeps only pinned conversations.
	TabPinned Tab = "pinned"
	// TabToday keeps only conversations updated within the last 24 hours.
	TabToday Tab = "today"

	// SortRecent orders by updatedAt, newest first, with recency headers.
	SortRecent Sort = "recent"
	// SortAZ orders by title ascending, without headers.
	SortAZ Sort = "az"
)

// Recency bucket labels, in display order.
const (
	BucketToday      = "Today"
	BucketYesterday  = "Yesterday"
	BucketThisWeek   = "This Week"
	BucketPast30Days = "Past 30 Days"
	BucketOlder      = "Older"
)

var bucketOrder = []string{BucketToday, BucketYesterday, BucketThisWeek, BucketPast30Days, BucketOlder}

// Params are the three knobs of a history query. The zero value means no
// search text, the all tab, and recent sort.
type Params struct {
	Query string
	Tab   Tab
	Sort  Sort
}

// Entry is one row of the flattened list: either a bucket header or a
// conversation item. Key is the stable list identity, the bucket label for
// headers and the conversation id for items.
type Entry struct {
	Key          string               `json:"key"`
	Label        string               `json:"label,omitempty"`
	Conversation *models.Conversation `json:"conversation,omitempty"`
}

// List filters, searches, sorts, and groups the given conversations into a
// single flattened sequence of header and item entries, ready for a list
// renderer. Recency is measured against now.
func List(conversations []models.Conversation, params Params, now time.Time) []Entry {
	if params.Tab == "" {
		params.Tab = TabAll
	}
	if params.Sort == "" {
		params.Sort = SortRecent
	}

	filtered := make([]models.Conversation, 0, len(conversations))
	for _, c := range conversations {
		switch params.Tab {
		case TabPinned:
			if !c.IsPinned {
				continue
			}
		case TabToday:
			if now.Sub(c.UpdatedAt) >= 24*time.Hour {
				continue
			}
		}
		if !matches(c, params.Query) {
			continue
		}
		filtered = append(filtered, c)
	}

	if params.Sort == SortAZ {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].Title < filtered[j].Title
		})
		entries := make([]Entry, len(filtered))
		for i := range filtered {
			entries[i] = Entry{Key: filtered[i].ID, Conversation: &filtered[i]}
		}
		return entries
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
	})

	buckets := make(map[string][]*models.Conversation)
	for i := range filtered {
		label := bucketFor(now.Sub(filtered[i].UpdatedAt))
		buckets[label] = append(buckets[label], &filtered[i])
	}

	var entries []Entry
	for _, label := range bucketOrder {
		items := buckets[label]
		if len(items) == 0 {
			continue
		}
		entries = append(entries, Entry{Key: label, Label: label})
		for _, c := range items {
			entries = append(entries, Entry{Key: c.ID, Conversation: c})
		}
	}
	return entries
}

// matches reports whether the conversation's title or preview contains the
// query, case-insensitively. An empty query matches everything.
func matches(c models.Conversation, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(c.Title), q) ||
		strings.Contains(strings.ToLower(c.Preview), q)
}

// bucketFor maps an age onto exactly one recency bucket.
func bucketFor(age time.Duration) string {
	switch {
	case age < 24*time.Hour:
		return BucketToday
	case age < 48*time.Hour:
		return BucketYesterday
	case age < 7*24*time.Hour:
		return BucketThisWeek
	case age < 30*24*time.Hour:
		return BucketPast30Days
	default:
		return BucketOlder
	}
}
