// Package watcher keeps anchors current while their files are edited.
//
// FileWatcher reports debounced changes to a set of tracked files using
// fsnotify on their parent directories, so editors that save by renaming a
// temp file over the original are still seen. Syncer ties a FileWatcher to a
// repository and relocates the anchors of every file that changed.
//
// Usage:
//
//	s := watcher.NewSyncer(repo, relocator, watcher.DefaultOptions())
//	if err := s.Run(ctx); err != nil {
//	    return err
//	}
package watcher
