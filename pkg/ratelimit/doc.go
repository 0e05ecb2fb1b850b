// Package ratelimit throttles feed page requests.
//
// Interval is a thin wrapper over golang.org/x/time/rate with a burst of one,
// which gives the "at least N between request starts" behaviour the feed
// endpoint expects:
//
//	pages := ratelimit.NewInterval(4 * time.Second)
//	for {
//	    if err := pages.Wait(ctx); err != nil {
//	        return err
//	    }
//	    // fetch the next page
//	}
package ratelimit
