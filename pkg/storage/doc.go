// Package storage writes downloaded media into the destination directory.
//
// Every file is streamed into a temporary sibling and renamed into place, so
// a file either exists under its final name with complete content or not at
// all. That property is what lets the downloader treat an existing name as
// "already downloaded".
//
//	manager, err := storage.NewManager(destDir)
//	if err != nil {
//	    return err
//	}
//	if !manager.Exists("abc123.jpg") {
//	    n, err := manager.Save(resp.Body, "abc123.jpg")
//	}
package storage
