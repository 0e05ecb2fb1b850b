package reddit

import "encoding/json"

// Post is one feed entry. Fields beyond ID, URL, Title, Score and Over18 are
// informational and only used for logging and the wrong-type log.
type Post struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Score      int     `json:"score"`
	Over18     bool    `json:"over_18"`
	Subreddit  string  `json:"subreddit"`
	Author     string  `json:"author"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

type listing struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type listingData struct {
	After    string  `json:"after"`
	Children []child `json:"children"`
}

type child struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// urlField reads only the url of a child, nil when absent or null
type urlField struct {
	URL *string `json:"url"`
}
