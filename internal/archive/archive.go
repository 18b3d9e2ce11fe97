// Package archive keeps every delivered tick report in hourly
// zstd-compressed JSONL segments.
package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/starbase/internal/engine"
)

const (
	prefix = "reports"
	suffix = ".jsonl.zst"
)

// Writer appends messages to the current hour's segment.
type Writer struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewWriter returns a writer for segments under dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// SendMessage archives m. It satisfies engine.MessageSender so the archive
// can sit behind the fan-out sender.
func (w *Writer) SendMessage(_ context.Context, m engine.Message) error {
	return w.Write(m)
}

// Write appends one message as a JSON line.
func (w *Writer) Write(m engine.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close finishes the open segment.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	// Reopening an hour appends a second zstd frame; readers decode both.
	f, err := os.OpenFile(w.path(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	w.curHour = ""
	return err
}

func (w *Writer) path(hour string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s%s", prefix, hour, suffix))
}

// Segments lists the archive files under dir, oldest first.
func Segments(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, suffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// ReadSegment decodes one segment and calls fn for every message.
func ReadSegment(path string, fn func(engine.Message) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var m engine.Message
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Filter selects archived messages. Zero fields match everything.
type Filter struct {
	Recipient int64
	RunID     string
}

// Match reports whether m passes the filter.
func (f Filter) Match(m engine.Message) bool {
	if f.Recipient != 0 && m.Recipient != f.Recipient {
		return false
	}
	if f.RunID != "" && m.RunID != f.RunID {
		return false
	}
	return true
}

// ReadAll walks every segment under dir and returns the matching messages.
func ReadAll(dir string, filter Filter) ([]engine.Message, error) {
	paths, err := Segments(dir)
	if err != nil {
		return nil, err
	}
	var out []engine.Message
	for _, p := range paths {
		err := ReadSegment(p, func(m engine.Message) error {
			if filter.Match(m) {
				out = append(out, m)
			}
			return nil
		})
		if err != nil {
			return out, err
		}
	}
	return out, nil
}
