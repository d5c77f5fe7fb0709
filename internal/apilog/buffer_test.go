package apilog

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuffer_EvictsOldestBeyondCapacity(t *testing.T) {
	buf := NewBuffer()

	for i := 0; i < MaxEntries+5; i++ {
		buf.Add(Entry{
			Date:     time.Now(),
			Endpoint: fmt.Sprintf("https://example.com/call/%d", i),
			Method:   "POST",
		})
	}

	entries := buf.List()
	require.Len(t, entries, MaxEntries)
	require.Equal(t, "https://example.com/call/5", entries[0].Endpoint)
	require.Equal(t, fmt.Sprintf("https://example.com/call/%d", MaxEntries+4), entries[len(entries)-1].Endpoint)
}

func TestBuffer_TruncatesLargeBodies(t *testing.T) {
	buf := NewBuffer()

	long := strings.Repeat("x", 5000)
	buf.Add(Entry{ResponseBody: long, Request: long})

	entries := buf.List()
	require.Len(t, entries, 1)
	require.Equal(t, 1000+len("…"), len(entries[0].ResponseBody))
	require.True(t, strings.HasSuffix(entries[0].ResponseBody, "…"))
	require.True(t, strings.HasSuffix(entries[0].Request, "…"))
}

func TestBuffer_ShortBodiesUntouched(t *testing.T) {
	buf := NewBuffer()
	buf.Add(Entry{ResponseBody: "ok"})

	require.Equal(t, "ok", buf.List()[0].ResponseBody)
}

func TestBuffer_Clear(t *testing.T) {
	buf := NewBuffer()
	buf.Add(Entry{ResponseBody: "ok"})
	require.Equal(t, 1, buf.Len())

	buf.Clear()
	require.Equal(t, 0, buf.Len())
	require.Empty(t, buf.List())
}
