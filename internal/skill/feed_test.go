package skill

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Test Feed</title>
<link>https://feed.test/</link>
<description>fixture</description>
<item>
  <title>Fresh Entry</title>
  <link>https://feed.test/fresh</link>
  <guid>feed-fresh</guid>
  <description>Hello &lt;b&gt;world&lt;/b&gt;</description>
  <pubDate>Sat, 22 Aug 2026 11:00:00 +0000</pubDate>
  <enclosure url="https://feed.test/a.mp3" length="1" type="audio/mpeg"/>
</item>
<item>
  <title>Stale Entry</title>
  <link>https://feed.test/stale</link>
  <guid>feed-stale</guid>
  <pubDate>Thu, 20 Aug 2026 10:00:00 +0000</pubDate>
</item>
</channel></rss>`

func newTestFeed(st Store, status int, body string) *FeedPoller {
	p := NewFeed(Deps{
		Owner:   "alice",
		FeedURL: "https://feed.test/rss",
		Budget:  Budget{Requests: 5, Window: 15 * time.Minute},
	}, st)
	p.now = func() time.Time { return time.Date(2026, 8, 22, 12, 0, 0, 0, time.UTC) }
	p.parser.Client = &http.Client{
		Timeout: feedTimeout,
		Transport: roundTripFunc(func(_ *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: status,
				Header:     http.Header{"Content-Type": []string{"application/rss+xml"}},
				Body:       io.NopCloser(strings.NewReader(body)),
			}, nil
		}),
	}
	return p
}

func TestFeed_ColdStart(t *testing.T) {
	st := newFakeStore()
	p := newTestFeed(st, http.StatusOK, feedFixture)

	res := p.Poll(context.Background())
	if res.Err != "" {
		t.Fatalf("unexpected envelope error: %s", res.Err)
	}

	// the stale entry is outside the 24h lookback
	if len(res.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(res.Items))
	}
	it := res.Items[0]
	if it.ID != "feed-fresh" {
		t.Errorf("id = %q", it.ID)
	}
	if it.Author != "Test Feed" {
		t.Errorf("author = %q, want feed title fallback", it.Author)
	}
	if !strings.Contains(it.Text, "Fresh Entry") || !strings.Contains(it.Text, "Hello world") {
		t.Errorf("text = %q", it.Text)
	}
	want := time.Date(2026, 8, 22, 11, 0, 0, 0, time.UTC)
	if !it.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", it.Timestamp, want)
	}
	if len(it.Media) != 1 || it.Media[0] != "https://feed.test/a.mp3" {
		t.Errorf("media = %v", it.Media)
	}

	cursor := st.data[storeKey("alice", "get_feed", "last")]
	if cursor["since_time"] != "2026-08-22T11:00:00Z" {
		t.Errorf("stored since_time = %v", cursor["since_time"])
	}
}

func TestFeed_SecondPollSeesNothingNew(t *testing.T) {
	st := newFakeStore()
	p := newTestFeed(st, http.StatusOK, feedFixture)

	if res := p.Poll(context.Background()); res.Err != "" {
		t.Fatalf("first poll: %s", res.Err)
	}
	res := p.Poll(context.Background())
	if res.Err != "" {
		t.Fatalf("second poll: %s", res.Err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("second poll returned %d items, want 0", len(res.Items))
	}
	if st.saves != 1 {
		t.Errorf("cursor written %d times, want 1", st.saves)
	}
}

func TestFeed_CursorNeverRegresses(t *testing.T) {
	st := newFakeStore()
	st.data[storeKey("alice", "get_feed", "last")] = map[string]any{"since_time": "2026-08-22T11:30:00Z"}
	p := newTestFeed(st, http.StatusOK, feedFixture)

	res := p.Poll(context.Background())
	if res.Err != "" {
		t.Fatalf("poll: %s", res.Err)
	}
	if len(res.Items) != 0 {
		t.Fatalf("got %d items, want 0", len(res.Items))
	}
	if st.saves != 0 {
		t.Errorf("cursor written %d times, want 0", st.saves)
	}
	cursor := st.data[storeKey("alice", "get_feed", "last")]
	if cursor["since_time"] != "2026-08-22T11:30:00Z" {
		t.Errorf("stored since_time regressed: %v", cursor["since_time"])
	}
}

func TestFeed_MissingURL(t *testing.T) {
	p := NewFeed(Deps{Owner: "alice"}, newFakeStore())

	res := p.Poll(context.Background())
	if res.Err != msgNoFeedURL {
		t.Errorf("envelope error = %q, want %q", res.Err, msgNoFeedURL)
	}
}

func TestFeed_HTTPErrorIsSoft(t *testing.T) {
	st := newFakeStore()
	p := newTestFeed(st, http.StatusInternalServerError, "")

	res := p.Poll(context.Background())
	if res.Err == "" {
		t.Fatal("expected envelope error")
	}
	if len(res.Items) != 0 {
		t.Errorf("failed poll returned %d items", len(res.Items))
	}
	if st.saves != 0 {
		t.Errorf("failed poll wrote cursor %d times", st.saves)
	}
}

func TestFeed_RateLimited(t *testing.T) {
	st := newFakeStore()
	p := newTestFeed(st, http.StatusOK, feedFixture)
	p.budget = Budget{Requests: 1, Window: 15 * time.Minute}

	if res := p.Poll(context.Background()); res.Err != "" {
		t.Fatalf("first poll: %s", res.Err)
	}
	res := p.Poll(context.Background())
	if !strings.Contains(res.Err, "Rate limit exceeded") {
		t.Errorf("envelope error = %q", res.Err)
	}
}

func TestFeed_Name(t *testing.T) {
	p := NewFeed(Deps{Owner: "alice"}, newFakeStore())
	if p.Name() != "get_feed" {
		t.Errorf("name = %q", p.Name())
	}
}
