// Package skill implements stateful incremental pollers exposed as named,
// capability-gated skills. Every poller reports runtime failures inside
// its Result envelope; polling never panics and never returns a Go error.
package skill

import (
	"context"
	"fmt"
	"time"

	"github.com/pkalnins/earshot/internal/twitter"
)

// Enablement states a skill can be configured with.
const (
	StateDisabled = "disabled"
	StatePublic   = "public"
	StatePrivate  = "private"
)

const (
	// cursorKey is the store key every poller keeps its progress under.
	cursorKey = "last"

	lookback     = 24 * time.Hour
	coldPageSize = 10
	warmPageSize = 100
)

// Envelope messages for missing credentials or identity.
const (
	msgNoClient   = "Failed to get Twitter client. Please check your authentication."
	msgNoUserID   = "Failed to get Twitter user ID."
	msgNoUsername = "Failed to get Twitter username."
	msgNoFeedURL  = "No feed URL is configured."
)

// Store persists sync state keyed by (owner, skill, key). Get returns nil
// with no error when nothing is stored under the key.
type Store interface {
	GetSkillData(ctx context.Context, ownerID, skill, key string) (map[string]any, error)
	SaveSkillData(ctx context.Context, ownerID, skill, key string, data map[string]any) error
}

// TwitterAPI is the slice of the Twitter client the pollers consume.
type TwitterAPI interface {
	Ready() bool
	Elevated() bool
	UserID() string
	Username() string
	UserMentions(ctx context.Context, userID string, p twitter.Params) (*twitter.Timeline, error)
	UserTweets(ctx context.Context, userID string, p twitter.Params) (*twitter.Timeline, error)
	SearchRecent(ctx context.Context, query string, p twitter.Params) (*twitter.Timeline, error)
}

// Budget is the shared-access rate budget applied to non-elevated
// credentials.
type Budget struct {
	Requests int
	Window   time.Duration
}

func (b Budget) orDefault() Budget {
	if b.Requests <= 0 {
		b.Requests = 1
	}
	if b.Window <= 0 {
		b.Window = 15 * time.Minute
	}
	return b
}

// Reference points at another item the polled item relates to.
type Reference struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Item is one normalized feed entry. The order of items in a Result
// matches the upstream response exactly.
type Item struct {
	ID         string      `json:"id"`
	Author     string      `json:"author"`
	Text       string      `json:"text"`
	Timestamp  time.Time   `json:"timestamp"`
	References []Reference `json:"references,omitempty"`
	Media      []string    `json:"media,omitempty"`
}

// Result is the uniform poll envelope. Err is set on any failure path and
// Items is empty in that case.
type Result struct {
	Items []Item `json:"items"`
	Err   string `json:"error,omitempty"`
}

func failure(msg string) Result {
	return Result{Items: []Item{}, Err: msg}
}

// Skill is a named poller bound to a shared store at construction.
type Skill interface {
	Name() string
	Poll(ctx context.Context) Result
}

// loadCursor returns the mapping stored under the skill's cursor key, or
// an empty mapping when nothing is stored yet.
func loadCursor(ctx context.Context, st Store, owner, name string) (map[string]any, error) {
	data, err := st.GetSkillData(ctx, owner, name, cursorKey)
	if err != nil {
		return nil, fmt.Errorf("load cursor: %w", err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// saveCursor writes the whole mapping back, preserving keys other than
// the one the caller just set.
func saveCursor(ctx context.Context, st Store, owner, name string, cursor map[string]any) error {
	if err := st.SaveSkillData(ctx, owner, name, cursorKey, cursor); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

func cursorString(cursor map[string]any, field string) string {
	if v, ok := cursor[field].(string); ok {
		return v
	}
	return ""
}

func cursorTime(cursor map[string]any, field string) time.Time {
	v := cursorString(cursor, field)
	if v == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// pollParams derives the fetch window from the stored cursor: a small
// page on cold start, a large one when backfilling from a cursor, with
// lookback always bounded to the last 24 hours.
func pollParams(cursor map[string]any, now time.Time) twitter.Params {
	p := twitter.Params{
		SinceID:    cursorString(cursor, "since_id"),
		StartTime:  now.Add(-lookback),
		MaxResults: coldPageSize,
	}
	if p.SinceID != "" {
		p.MaxResults = warmPageSize
	}
	return p
}
