// Package source loads and decodes meme base images.
//
// Decoding is asynchronous: [Loader.Load] starts the download and decode
// and returns a [Task] that the caller awaits with [Task.Wait] before
// rendering. When inputs can change while a load is in flight (the live
// editor, for example), a [Tracker] hands out a [Ticket] per input; a
// completion whose ticket is no longer current is simply dropped.
//
//	ticket := tracker.Next()
//	task := loader.Load(ctx, url)
//	img, err := task.Wait(ctx)
//	if !tracker.Current(ticket) {
//	    return // superseded by newer input
//	}
//
// Supported formats are PNG, JPEG, GIF (first frame), BMP and WebP.
package source
