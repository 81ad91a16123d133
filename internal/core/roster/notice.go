package roster

import (
	"sync"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a dismissible message for the staff using the roster.
type Notice struct {
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	PatientID string    `json:"patientId,omitempty"`
	At        time.Time `json:"at"`
}

type Notifier interface {
	Notify(n Notice)
}

// Feed keeps the most recent notices in a fixed-size ring.
type Feed struct {
	mu      sync.Mutex
	notices []Notice
	next    int
	full    bool
}

func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = 50
	}
	return &Feed{notices: make([]Notice, capacity)}
}

func (f *Feed) Notify(n Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.notices[f.next] = n
	f.next = (f.next + 1) % len(f.notices)
	if f.next == 0 {
		f.full = true
	}
}

// Recent returns the retained notices, newest first.
func (f *Feed) Recent() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := f.next
	if f.full {
		count = len(f.notices)
	}
	out := make([]Notice, 0, count)
	for i := 1; i <= count; i++ {
		idx := (f.next - i + len(f.notices)) % len(f.notices)
		out = append(out, f.notices[idx])
	}
	return out
}
