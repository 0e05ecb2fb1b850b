// Package scraper drives a download run: it walks a subreddit or
// multireddit feed page by page, filters the posts, resolves each survivor
// into media URLs and hands those to the downloader.
//
// The loop is single threaded. Feed fetches are spaced by a page limiter
// (4 seconds by default, measured between fetch starts). All run state
// lives in a value threaded through the loop, so a Scraper built with
// stub collaborators can be driven to completion in tests.
//
// Filtering short-circuits on the first failing rule, in this order:
// comment-thread link, minimum score, safe-only, nsfw-only, title regex,
// album skip, title substring. Each rejected post adds one to Skipped.
//
// Per-URL outcomes:
//
//	success            Downloaded
//	already exists     Exists; ends the run in update mode
//	unsupported type   Skipped; recorded in the wrong-type log
//	anything else      Failed
//
// Feed errors and cancellation end the run with an error.
package scraper
