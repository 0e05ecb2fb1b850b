// Package logger is the structured logging layer shared by every redditdl
// package.
//
// It wraps zerolog behind the Logger interface so packages can accept a
// logger without importing zerolog, and so tests can swap in NewNopLogger or
// the capturing TestLogger.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Page fetched", map[string]interface{}{
//	    "page":  3,
//	    "posts": 25,
//	})
//
// Console output goes to stderr so it never interleaves with the download
// progress printed on stdout.
package logger
