package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/netscene/pkg/logging"
)

// ChangeType represents the kind of snapshot table that changed
type ChangeType int

const (
	ChangeTypeNodeTable ChangeType = iota
	ChangeTypeEdgeTable
)

func (t ChangeType) String() string {
	if t == ChangeTypeEdgeTable {
		return "edges"
	}
	return "nodes"
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FolderWatcher watches a snapshot folder for new or rewritten tables
type FolderWatcher struct {
	watcher    *fsnotify.Watcher
	folder     string
	nodeMarker string
	edgeMarker string
	events     chan ChangeEvent
	stopOnce   sync.Once
}

// NewFolderWatcher creates a watcher for the tables in folder
func NewFolderWatcher(folder, nodeMarker, edgeMarker string) (*FolderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FolderWatcher{
		watcher:    watcher,
		folder:     folder,
		nodeMarker: nodeMarker,
		edgeMarker: edgeMarker,
		events:     make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching the folder. Events stop when ctx is done.
func (fw *FolderWatcher) Start(ctx context.Context) error {
	// The folder is watched non-recursively, matching batch discovery
	if err := fw.watcher.Add(fw.folder); err != nil {
		fw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", fw.folder, err)
	}

	logging.Info("started watching folder", "path", fw.folder, "nodeMarker", fw.nodeMarker, "edgeMarker", fw.edgeMarker)

	go fw.processEvents(ctx)
	return nil
}

// processEvents forwards relevant file system events one path at a time;
// the Debouncer downstream coalesces bursts
func (fw *FolderWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			changeType, ok := Classify(filepath.Base(event.Name), fw.nodeMarker, fw.edgeMarker)
			if !ok {
				continue
			}
			logging.Trace("table changed", "path", event.Name, "op", event.Op.String())

			select {
			case fw.events <- ChangeEvent{Type: changeType, Paths: []string{event.Name}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FolderWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop stops the file watcher
func (fw *FolderWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}
