// Package persistence implements the bounded write-back queue that sits
// between in-memory setting changes and the configuration file.
//
// The queue holds at most one entry per (section, key): a later enqueue
// overwrites the value and timestamp of the existing entry. Flushing does
// not write entries individually; it asks a Saver to rewrite the whole file
// and then drops the entries that save covered.
package persistence

import (
	"strings"
	"sync"
	"time"

	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/schema"
)

// DefaultCapacity is the number of distinct pending settings
const DefaultCapacity = 32

// Saver rewrites the complete configuration file
type Saver interface {
	Save(path string) error
}

// SaverFunc adapts a function to Saver
type SaverFunc func(path string) error

// Save calls f(path)
func (f SaverFunc) Save(path string) error {
	return f(path)
}

// Entry is one pending write-back
type Entry struct {
	Section    schema.SectionID
	Key        string
	Type       schema.Type
	Value      schema.Value
	EnqueuedAt time.Time

	seq uint64
}

// Queue is a bounded, coalescing write-back queue
type Queue struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
	seq      uint64

	// flushMu serializes flushes without holding mu during the save
	flushMu sync.Mutex

	now func() time.Time
}

// NewQueue creates a queue. A capacity below one selects DefaultCapacity.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Enqueue records the latest value of (section, key). An existing entry is
// updated in place. A new key on a full queue fails with ResourceLimit and
// leaves every existing entry untouched.
func (q *Queue) Enqueue(section schema.SectionID, key string, value schema.Value) error {
	if key == "" {
		return cfgerr.New(cfgerr.InvalidParameter, "enqueue", "key is required")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	for i := range q.entries {
		e := &q.entries[i]
		if e.Section == section && strings.EqualFold(e.Key, key) {
			e.Value = value
			e.Type = value.Type()
			e.EnqueuedAt = q.now()
			e.seq = q.seq
			return nil
		}
	}

	if len(q.entries) >= q.capacity {
		return &cfgerr.Error{
			Kind: cfgerr.ResourceLimit, Op: "enqueue",
			Section: section.String(), Key: key,
			Message: "persistence queue is full",
		}
	}

	q.entries = append(q.entries, Entry{
		Section:    section,
		Key:        key,
		Type:       value.Type(),
		Value:      value,
		EnqueuedAt: q.now(),
		seq:        q.seq,
	})
	return nil
}

// Flush saves the whole configuration to path. On success the entries
// present when the flush began are removed, unless they were updated while
// the save ran; on failure the queue is left as it was. An empty queue
// still saves, so a flush always leaves the file current.
func (q *Queue) Flush(saver Saver, path string) (int, error) {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	q.mu.Lock()
	covered := make(map[string]uint64, len(q.entries))
	for _, e := range q.entries {
		covered[entryKey(e.Section, e.Key)] = e.seq
	}
	q.mu.Unlock()

	if err := saver.Save(path); err != nil {
		return len(covered), err
	}

	q.mu.Lock()
	kept := q.entries[:0]
	for _, e := range q.entries {
		if seq, ok := covered[entryKey(e.Section, e.Key)]; ok && seq == e.seq {
			continue
		}
		kept = append(kept, e)
	}
	// zero the tail so dropped values are not retained
	for i := len(kept); i < len(q.entries); i++ {
		q.entries[i] = Entry{}
	}
	q.entries = kept
	q.mu.Unlock()

	return len(covered), nil
}

// Len returns the number of pending entries
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Capacity returns the maximum number of pending entries
func (q *Queue) Capacity() int {
	return q.capacity
}

// Entries returns a copy of the pending entries in insertion order
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Clear drops every pending entry and returns how many there were
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.entries)
	q.entries = q.entries[:0]
	return n
}

func entryKey(section schema.SectionID, key string) string {
	return section.String() + "\x00" + strings.ToLower(key)
}
