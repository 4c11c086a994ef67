package skill

import (
	"context"
	"html"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/pkalnins/earshot/internal/ratelimit"
)

const (
	feedSkillName = "get_feed"
	feedTimeout   = 30 * time.Second
	feedUserAgent = "earshot/1.0 (+https://github.com/pkalnins/earshot)"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s{3,}`)
)

// FeedPoller surfaces new entries from one RSS/Atom feed. Progress is a
// since_time cursor holding the newest publish time seen so far.
type FeedPoller struct {
	owner   string
	store   Store
	url     string
	limiter *ratelimit.Limiter
	budget  Budget
	parser  *gofeed.Parser

	now func() time.Time
}

// feedTransport injects a User-Agent header into every request.
type feedTransport struct {
	base http.RoundTripper
}

func (t *feedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", feedUserAgent)
	return t.base.RoundTrip(req)
}

func NewFeed(d Deps, st Store) *FeedPoller {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{
		Timeout:   feedTimeout,
		Transport: &feedTransport{base: http.DefaultTransport},
	}
	return &FeedPoller{
		owner:   d.Owner,
		store:   st,
		url:     d.FeedURL,
		limiter: ratelimit.New(),
		budget:  d.Budget.orDefault(),
		parser:  parser,
		now:     time.Now,
	}
}

func (p *FeedPoller) Name() string {
	return feedSkillName
}

func (p *FeedPoller) Poll(ctx context.Context) Result {
	log := slog.With("skill", feedSkillName, "owner", p.owner, "invocation", uuid.NewString())

	// Feeds have no elevated access mode; the budget always applies.
	if limited, msg := p.limiter.Check(p.budget.Requests, p.budget.Window); limited {
		return failure(msg)
	}

	cursor, err := loadCursor(ctx, p.store, p.owner, feedSkillName)
	if err != nil {
		log.Error("Error getting feed", "err", err)
		return failure(err.Error())
	}

	since := p.now().Add(-lookback)
	if stored := cursorTime(cursor, "since_time"); stored.After(since) {
		since = stored
	}

	if p.url == "" {
		return failure(msgNoFeedURL)
	}

	feed, err := p.parser.ParseURLWithContext(p.url, ctx)
	if err != nil {
		log.Error("Error getting feed", "err", err)
		return failure(err.Error())
	}

	items, newest := feedItems(feed, since)

	// The cursor only ever moves forward.
	if newest.After(cursorTime(cursor, "since_time")) {
		cursor["since_time"] = newest.UTC().Format(time.RFC3339)
		if err := saveCursor(ctx, p.store, p.owner, feedSkillName, cursor); err != nil {
			log.Error("Error getting feed", "err", err)
			return failure(err.Error())
		}
	}

	return Result{Items: items}
}

// feedItems normalizes entries newer than since, preserving feed order,
// and reports the newest publish time seen across the whole response.
func feedItems(feed *gofeed.Feed, since time.Time) ([]Item, time.Time) {
	items := make([]Item, 0, len(feed.Items))
	var newest time.Time
	for _, entry := range feed.Items {
		published := entryPublishedTime(entry)
		if published.IsZero() {
			continue
		}
		if published.After(newest) {
			newest = published
		}
		if !published.After(since) {
			continue
		}
		items = append(items, Item{
			ID:        entryID(entry),
			Author:    entryAuthor(feed, entry),
			Text:      entryText(entry),
			Timestamp: published.UTC(),
			Media:     entryMedia(entry),
		})
	}
	return items, newest
}

func entryPublishedTime(entry *gofeed.Item) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return time.Time{}
}

func entryID(entry *gofeed.Item) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	return entry.Link
}

func entryAuthor(feed *gofeed.Feed, entry *gofeed.Item) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return entry.Author.Name
	}
	return feed.Title
}

func entryText(entry *gofeed.Item) string {
	raw := entry.Content
	if raw == "" {
		raw = entry.Description
	}

	text := stripHTML(raw)

	if entry.Title != "" && !strings.Contains(text, entry.Title) {
		if text == "" {
			return entry.Title
		}
		text = entry.Title + "\n\n" + text
	}

	return strings.TrimSpace(text)
}

func entryMedia(entry *gofeed.Item) []string {
	var media []string
	for _, enc := range entry.Enclosures {
		if enc != nil && enc.URL != "" {
			media = append(media, enc.URL)
		}
	}
	return media
}

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = whitespaceRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
