package history

import (
	"sync"

	"classforge/internal/engine/workspace"
)

// Recorder listens on a workspace event bus and buffers entries until a
// flush. Buffering keeps sqlite out of the synchronous rename path; the
// app flushes after each session operation and on save.
type Recorder struct {
	key    string
	source string
	mu     sync.Mutex
	buf    []Entry
	remove func()
}

// Record attaches a recorder to the workspace. Source tags where the
// edits came from, such as "session" or "watch".
func Record(ws *workspace.Workspace, key, source string) *Recorder {
	r := &Recorder{key: key, source: source}
	r.remove = ws.Events().AddListener(r.observe)
	return r
}

func (r *Recorder) observe(ev workspace.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = append(r.buf, Entry{
		WorkspaceKey: r.key,
		Kind:         string(ev.Kind),
		BlockID:      ev.BlockID,
		Field:        ev.Field,
		Old:          ev.Old,
		New:          ev.New,
		GroupID:      ev.Group,
		Source:       r.source,
		Timestamp:    ev.At,
	})
}

// Pending reports how many entries await a flush.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

// Flush appends the buffered entries to the store and clears the buffer.
// On error the buffer is kept so the next flush retries the same batch.
func (r *Recorder) Flush(store *Store) error {
	r.mu.Lock()
	batch := r.buf
	r.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := store.Append(r.key, batch); err != nil {
		return err
	}

	r.mu.Lock()
	r.buf = r.buf[len(batch):]
	r.mu.Unlock()
	return nil
}

// Detach removes the event listener. Buffered entries stay flushable.
func (r *Recorder) Detach() {
	if r.remove != nil {
		r.remove()
		r.remove = nil
	}
}
