package store

import (
	"context"
	"strings"

	"github.com/fsnotify/fsnotify"
	logger "github.com/sirupsen/logrus"
)

// Watch reports .json changes under path to notify until ctx is done. The
// store's NotifyChange is the usual callback; the change transport stays
// separate from the store's coalescing logic.
func Watch(ctx context.Context, path string, notify func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	logger.Infof("File watcher setup for %s", path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			logger.WithField("file", event.Name).Debugf("File change detected (%s)", event.Op)
			notify()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("File watcher error")
		}
	}
}
