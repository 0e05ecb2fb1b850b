// Package reddit reads the public JSON listing of a subreddit or multireddit.
//
// FeedURL turns a Request into a listing URL, FetchPage performs the request
// and flattens the response into Posts:
//
//	client := reddit.NewClient(httpClient, cfg.Reddit.BaseURL, log)
//	posts, err := client.FetchPage(ctx, reddit.Request{
//	    Target: "earthporn",
//	    Cursor: lastID,
//	    Sort:   reddit.ParseSort("topweek"),
//	})
package reddit
