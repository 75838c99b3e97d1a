// Package logfile follows locally persisted session log files. It is the
// delivery path for desktop builds where session logs land on disk
// instead of behind an HTTP endpoint: existing records are read first,
// then appended records are delivered in file order as the runner writes
// them.
package logfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"specdeck/internal/stream"
)

const recordBufCap = 256

// Follower tails one session log file of JSON-encoded records, one per
// line.
type Follower struct {
	path    string
	file    *os.File
	watcher *fsnotify.Watcher
	records chan stream.LogRecord
	partial []byte // trailing bytes of an incomplete line

	cancel    chan struct{}
	closeOnce sync.Once
}

// Follow opens a session log file and starts delivering its records.
// Records already in the file are delivered first, in order, followed by
// records appended while the follower is open.
func Follow(path string) (*Follower, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, err
	}

	// Watch the directory, not the file: editors and runners often
	// replace the file on rotation, which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		file.Close()
		return nil, err
	}

	f := &Follower{
		path:    path,
		file:    file,
		watcher: watcher,
		records: make(chan stream.LogRecord, recordBufCap),
		cancel:  make(chan struct{}),
	}

	go f.run()

	return f, nil
}

// Records returns the channel of parsed log records. It is closed when
// the follower shuts down.
func (f *Follower) Records() <-chan stream.LogRecord {
	return f.records
}

// Close stops following and releases the watcher. Safe to call more
// than once.
func (f *Follower) Close() {
	f.closeOnce.Do(func() { close(f.cancel) })
}

// run delivers existing content, then reads new content on each write
// notification until Close.
func (f *Follower) run() {
	defer func() {
		f.watcher.Close()
		f.file.Close()
		close(f.records)
	}()

	f.readAvailable()

	for {
		select {
		case <-f.cancel:
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Name != f.path {
				continue
			}
			if event.Has(fsnotify.Create) {
				f.reopen()
				continue
			}
			if event.Has(fsnotify.Write) {
				f.readAvailable()
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("follow %s: watcher error: %v", f.path, err)
		}
	}
}

// reopen switches to a freshly created file at the followed path.
// Rotation renames the old file away and recreates the path, so the
// original descriptor stops seeing new bytes.
func (f *Follower) reopen() {
	file, err := os.Open(f.path)
	if err != nil {
		log.Printf("follow %s: reopen after rotation: %v", f.path, err)
		return
	}
	f.file.Close()
	f.file = file
	f.partial = nil
	f.readAvailable()
}

// readAvailable reads from the current offset to EOF and emits each
// complete line as a record. A trailing line without a newline is held
// back until the rest of it is written.
func (f *Follower) readAvailable() {
	data, err := io.ReadAll(f.file)
	if err != nil {
		log.Printf("follow %s: read error: %v", f.path, err)
		return
	}
	if len(data) == 0 {
		return
	}

	buf := append(f.partial, data...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		line := buf[:i]
		buf = buf[i+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		f.emit(line)
	}
	f.partial = append([]byte(nil), buf...)
}

// emit parses one line into a record. Lines that are not valid record
// JSON become synthetic info-level records so no line is lost, matching
// the degrade rule of the stream parser.
func (f *Follower) emit(line []byte) {
	var rec stream.LogRecord
	if err := json.Unmarshal(line, &rec); err != nil || rec.Message == "" {
		rec = stream.LogRecord{
			Timestamp: time.Now().UTC(),
			Level:     stream.LevelInfo,
			Message:   string(line),
		}
	}

	select {
	case f.records <- rec:
	case <-f.cancel:
	}
}

// ReadAll reads every record currently in a session log file without
// following it. Useful for one-shot hydration of finished sessions.
func ReadAll(path string) ([]stream.LogRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []stream.LogRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec stream.LogRecord
		if err := json.Unmarshal(line, &rec); err != nil || rec.Message == "" {
			rec = stream.LogRecord{
				Timestamp: time.Now().UTC(),
				Level:     stream.LevelInfo,
				Message:   string(line),
			}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
