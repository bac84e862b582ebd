/*
DESCRIPTION
  vars.go reads sentry variables from a key=value file and applies changes
  to live tunable variables when the file is edited.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/ausocean/sentry/config"
	"github.com/ausocean/utils/logging"
)

// updater is implemented by *sentry.Sentry.
type updater interface {
	Update(vars map[string]string) error
}

// readVars reads the key=value file at path.
func readVars(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseVars(f)
}

// parseVars parses lines of key=value pairs. Blank lines and lines starting
// with # are ignored; keys and values are trimmed of space.
func parseVars(r io.Reader) (map[string]string, error) {
	vars := make(map[string]string)
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '=' in %q", n, line)
		}
		vars[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return vars, sc.Err()
}

// tunableChanges returns the tunable variables whose values differ between
// old and next, and the names of changed variables that are not tunable.
func tunableChanges(old, next map[string]string) (tunable map[string]string, fixed []string) {
	tunable = make(map[string]string)
	for k, v := range next {
		if ov, ok := old[k]; ok && ov == v {
			continue
		}
		if config.IsTunable(k) {
			tunable[k] = v
			continue
		}
		fixed = append(fixed, k)
	}
	return tunable, fixed
}

// watchVars watches the config file at path and applies changed tunable
// variables to u. Other changes are logged and need a restart to apply.
// The watcher is on the file's directory so that editors replacing the file
// are seen.
func watchVars(path string, vars map[string]string, u updater, l logging.Logger) (io.Closer, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create watcher: %w", err)
	}
	err = w.Add(filepath.Dir(path))
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("could not watch config directory: %w", err)
	}

	name := filepath.Clean(path)
	current := vars
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				next, err := readVars(path)
				if err != nil {
					l.Warning(pkg+"could not reread config file", "error", err.Error())
					continue
				}
				tunable, fixed := tunableChanges(current, next)
				if len(fixed) != 0 {
					l.Warning(pkg+"config changes need restart", "vars", strings.Join(fixed, ","))
				}
				if len(tunable) != 0 {
					l.Info("applying config changes", "vars", tunable)
					err = u.Update(tunable)
					if err != nil {
						l.Error(pkg+"could not apply config changes", "error", err.Error())
						continue
					}
				}
				for k, v := range tunable {
					current[k] = v
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.Warning(pkg+"config watcher error", "error", err.Error())
			}
		}
	}()
	return w, nil
}
