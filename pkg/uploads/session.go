package uploads

import (
	"sort"
	"sync"
	"time"
)

// UploadSession tracks one logical multi-chunk upload. Each session carries
// its own mutex so unrelated uploads never serialize on shared state.
type UploadSession struct {
	ID               string
	OriginalFilename string
	TotalChunks      int

	mu           sync.Mutex
	received     map[int]struct{}
	lastActivity time.Time
	finished     bool
}

func newUploadSession(id string, totalChunks int, filename string) *UploadSession {
	return &UploadSession{
		ID:               id,
		OriginalFilename: filename,
		TotalChunks:      totalChunks,
		received:         make(map[int]struct{}, totalChunks),
		lastActivity:     time.Now(),
	}
}

// Lock acquires the per-session mutex. The reassembler holds it across
// completion so racing completes serialize, and the sweeper takes it before
// purging so it never races an in-flight completion.
func (s *UploadSession) Lock() {
	s.mu.Lock()
}

func (s *UploadSession) Unlock() {
	s.mu.Unlock()
}

// MarkReceived records a chunk index as staged. Re-submissions of an already
// received index are accepted idempotently.
func (s *UploadSession) MarkReceived(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received[index] = struct{}{}
	s.lastActivity = time.Now()
}

func (s *UploadSession) ReceivedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

// Missing returns the chunk indices not yet received, in ascending order.
func (s *UploadSession) Missing() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.missingLocked()
}

func (s *UploadSession) missingLocked() []int {
	var missing []int
	for i := 0; i < s.TotalChunks; i++ {
		if _, ok := s.received[i]; !ok {
			missing = append(missing, i)
		}
	}
	sort.Ints(missing)
	return missing
}

func (s *UploadSession) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// finishLocked marks the session completed or reclaimed. A finished session
// stays finished; latecomers observe it as gone.
func (s *UploadSession) finishLocked() {
	s.finished = true
}

func (s *UploadSession) finishedLocked() bool {
	return s.finished
}

func (s *UploadSession) idleForLocked() time.Duration {
	return time.Since(s.lastActivity)
}
