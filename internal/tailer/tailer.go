// Package tailer implements the persistent-offset tail reader: component B.
// Unlike a continuous-streaming tailer that runs one
// continuous streaming goroutine per file, this Tailer is pulled once per
// filesystem event by the consumer, against an offset table it owns.
package tailer

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/ichar/orderlogd/internal/textdecode"
)

// DecodedLine is one decoded line, or a synthetic entry describing a
// decode failure on that line's bytes — callers still need the raw
// position to advance past it.
type DecodedLine struct {
	Text string
	Err  error
}

// Tailer tracks a byte offset per file, so that ReadNewLines only returns
// lines appended since the last call.
type Tailer struct {
	mu      sync.Mutex
	offsets map[string]int64
}

// New constructs an empty Tailer.
func New() *Tailer {
	return &Tailer{offsets: make(map[string]int64)}
}

// RegisterFile starts tracking path at the given initial offset (normally
// 0 for a newly discovered file, or the file's current size to skip
// pre-existing content on a bootstrap sweep).
func (t *Tailer) RegisterFile(path string, initialOffset int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.offsets[path] = initialOffset
}

// ForgetFile stops tracking path, e.g. after a delete event.
func (t *Tailer) ForgetFile(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.offsets, path)
}

// RenameFile moves the tracked offset from oldPath to newPath, preserving
// position across a file-system rename event.
func (t *Tailer) RenameFile(oldPath, newPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if off, ok := t.offsets[oldPath]; ok {
		delete(t.offsets, oldPath)
		t.offsets[newPath] = off
	}
}

// Offset returns the current tracked offset for path, and whether path is
// tracked at all.
func (t *Tailer) Offset(path string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	off, ok := t.offsets[path]
	return off, ok
}

// ReadNewLines reads and decodes every complete line appended to path since
// the last call, advancing the tracked offset past the bytes consumed. A
// trailing partial line (no terminating '\n') is left unconsumed so a
// later call can read it once it is complete. If the file has shrunk below
// the tracked offset — rotation or truncation — the offset resets to 0 and
// the whole file is re-read.
func (t *Tailer) ReadNewLines(path string, dec textdecode.Decoder) ([]DecodedLine, error) {
	t.mu.Lock()
	offset, tracked := t.offsets[path]
	t.mu.Unlock()
	if !tracked {
		offset = 0
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < offset {
		offset = 0
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	lines, consumed := splitComplete(buf)

	t.mu.Lock()
	t.offsets[path] = offset + int64(consumed)
	t.mu.Unlock()

	out := make([]DecodedLine, 0, len(lines))
	for _, raw := range lines {
		text, derr := dec.Decode(raw)
		out = append(out, DecodedLine{Text: text, Err: derr})
	}
	return out, nil
}

// splitComplete splits buf on '\n' into complete lines (stripping a
// trailing '\r'), leaving any trailing partial line unconsumed. It returns
// the lines and the number of bytes consumed by them.
func splitComplete(buf []byte) ([][]byte, int) {
	var lines [][]byte
	consumed := 0
	for {
		idx := bytes.IndexByte(buf[consumed:], '\n')
		if idx < 0 {
			break
		}
		end := consumed + idx
		line := buf[consumed:end]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		lines = append(lines, line)
		consumed = end + 1
	}
	return lines, consumed
}
