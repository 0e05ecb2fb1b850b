// Package resolver turns the outbound URL of a post into direct media URLs.
//
// Each supported host is a Host strategy; Registry picks the first one whose
// Match accepts the URL and falls back to Passthrough:
//
//	reg := resolver.NewRegistry(log,
//	    resolver.NewImgur(client, policy),
//	    resolver.NewGfycat(client, cfg.Hosts.GfycatAPI),
//	    resolver.NewDeviantArt(client),
//	)
//	urls, err := reg.Resolve(ctx, post.URL)
package resolver
