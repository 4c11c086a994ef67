package twitter

// Tweet is one item of a v2 timeline response.
type Tweet struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	AuthorID         string            `json:"author_id"`
	CreatedAt        string            `json:"created_at"`
	ReferencedTweets []ReferencedTweet `json:"referenced_tweets,omitempty"`
	Attachments      *Attachments      `json:"attachments,omitempty"`
}

type ReferencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type Attachments struct {
	MediaKeys []string `json:"media_keys,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type Media struct {
	MediaKey string `json:"media_key"`
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
}

type Includes struct {
	Users  []User  `json:"users,omitempty"`
	Tweets []Tweet `json:"tweets,omitempty"`
	Media  []Media `json:"media,omitempty"`
}

type Meta struct {
	NewestID    string `json:"newest_id,omitempty"`
	OldestID    string `json:"oldest_id,omitempty"`
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token,omitempty"`
}

// Timeline is the common response shape of the mentions, user-tweets and
// recent-search endpoints.
type Timeline struct {
	Data     []Tweet  `json:"data"`
	Includes Includes `json:"includes"`
	Meta     Meta     `json:"meta"`
}

// UserByID returns the included user with the given id, if any.
func (in Includes) UserByID(id string) (User, bool) {
	for _, u := range in.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// MediaByKey returns the included media object for a media key, if any.
func (in Includes) MediaByKey(key string) (Media, bool) {
	for _, m := range in.Media {
		if m.MediaKey == key {
			return m, true
		}
	}
	return Media{}, false
}
