// Package apilog keeps a small in-memory log of recent TikTok API calls for
// the operator logs view. It is observability only and never in the publish
// pipeline's correctness path.
package apilog

import (
	"sync"
	"time"
)

const (
	// MaxEntries is the ring capacity; the oldest entry is evicted first.
	MaxEntries = 50

	maxBodyLen = 1000
)

type Entry struct {
	Date         time.Time `json:"date"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	Request      string    `json:"request,omitempty"`
	ResponseCode int       `json:"response_code"`
	ResponseBody string    `json:"response_body"`
}

type Buffer struct {
	mu      sync.Mutex
	entries []Entry
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Add(e Entry) {
	e.Request = Truncate(e.Request)
	e.ResponseBody = Truncate(e.ResponseBody)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, e)
	if len(b.entries) > MaxEntries {
		b.entries = b.entries[len(b.entries)-MaxEntries:]
	}
}

// List returns entries oldest first.
func (b *Buffer) List() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Truncate caps log payloads so a large response body cannot bloat the ring.
func Truncate(s string) string {
	if len(s) > maxBodyLen {
		return s[:maxBodyLen] + "…"
	}
	return s
}
