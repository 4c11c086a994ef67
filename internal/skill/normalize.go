package skill

import (
	"errors"
	"fmt"
	"time"

	"github.com/pkalnins/earshot/internal/twitter"
)

// normalizeTweets converts a timeline response into ordered items,
// resolving author usernames and media URLs from the response includes.
// A single malformed tweet fails the whole batch.
func normalizeTweets(tl *twitter.Timeline) ([]Item, error) {
	items := make([]Item, 0, len(tl.Data))
	for _, tw := range tl.Data {
		item, err := normalizeTweet(tw, tl.Includes)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func normalizeTweet(tw twitter.Tweet, in twitter.Includes) (Item, error) {
	if tw.ID == "" {
		return Item{}, errors.New("tweet missing id")
	}

	ts, err := parseTweetTime(tw.CreatedAt)
	if err != nil {
		return Item{}, fmt.Errorf("tweet %s: %w", tw.ID, err)
	}

	author := tw.AuthorID
	if u, ok := in.UserByID(tw.AuthorID); ok && u.Username != "" {
		author = u.Username
	}

	item := Item{
		ID:        tw.ID,
		Author:    author,
		Text:      tw.Text,
		Timestamp: ts,
	}

	for _, ref := range tw.ReferencedTweets {
		item.References = append(item.References, Reference{Type: ref.Type, ID: ref.ID})
	}

	if tw.Attachments != nil {
		for _, key := range tw.Attachments.MediaKeys {
			if m, ok := in.MediaByKey(key); ok && m.URL != "" {
				item.Media = append(item.Media, m.URL)
			}
		}
	}

	return item, nil
}

func parseTweetTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("missing created_at")
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at: %w", err)
	}
	return ts.UTC(), nil
}
