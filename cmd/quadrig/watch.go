package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/binzume/quadrig/logging"
	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// watchInputs reruns j whenever one of its input files is written. The
// parent directories are watched so that editors replacing files are seen.
func watchInputs(j *job) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, f := range j.inputs() {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	logging.Infof("watching %d files", len(watched))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	var pending <-chan time.Time
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if abs, _ := filepath.Abs(ev.Name); watched[abs] {
				logging.Debugf("changed: %s", ev.Name)
				pending = time.After(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("watch: %v", err)
		case <-pending:
			pending = nil
			if err := j.run(); err != nil {
				logging.Errorf("%v", err)
			}
		case <-interrupt:
			return nil
		}
	}
}
