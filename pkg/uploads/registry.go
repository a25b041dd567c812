package uploads

import (
	"context"
	"fmt"
	"sync"
	"time"

	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/file-drop/file-drop-backend/pkg/instrumentation"
	"github.com/rs/zerolog/log"
)

// SessionRegistry is the process-wide map of live upload sessions. The
// registry lock only guards the map itself; per-session state is guarded by
// each session's own mutex.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*UploadSession
	chunks   *ChunkStore
	metrics  *instrumentation.Metrics
}

func NewSessionRegistry(chunks *ChunkStore, metrics *instrumentation.Metrics) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*UploadSession),
		chunks:   chunks,
		metrics:  metrics,
	}
}

// GetOrCreate returns the session for sessionID, creating it on first sight.
// An existing session with a different totalChunks or filename is a
// SessionConflict: a client retry never legitimately changes either.
func (r *SessionRegistry) GetOrCreate(sessionID string, totalChunks int, filename string) (*UploadSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[sessionID]; ok {
		if session.TotalChunks != totalChunks {
			return nil, &ce.UploadError{
				Kind:    ce.SessionConflict,
				Message: fmt.Sprintf("session %s expects %d chunks, submission reports %d", sessionID, session.TotalChunks, totalChunks),
			}
		}
		if session.OriginalFilename != filename {
			return nil, &ce.UploadError{
				Kind:    ce.SessionConflict,
				Message: fmt.Sprintf("session %s was registered for %q, submission reports %q", sessionID, session.OriginalFilename, filename),
			}
		}
		return session, nil
	}

	session := newUploadSession(sessionID, totalChunks, filename)
	r.sessions[sessionID] = session
	if r.metrics != nil {
		r.metrics.ActiveUploadSessions.Inc()
	}
	return session, nil
}

func (r *SessionRegistry) Get(sessionID string) (*UploadSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, &ce.UploadError{Kind: ce.SessionNotFound, Message: fmt.Sprintf("no upload session %s", sessionID)}
	}
	return session, nil
}

// Remove drops a session from the registry. Removing an absent session is a
// no-op.
func (r *SessionRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; ok {
		delete(r.sessions, sessionID)
		if r.metrics != nil {
			r.metrics.ActiveUploadSessions.Dec()
		}
	}
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SweepExpired reclaims sessions idle longer than maxAge, purging their staged
// chunks, and also purges stale staging directories with no live session
// (leftovers of a failed post-completion purge or a previous process). Returns
// the number of sessions reclaimed.
func (r *SessionRegistry) SweepExpired(ctx context.Context, maxAge time.Duration) int {
	r.mu.RLock()
	candidates := make([]*UploadSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		candidates = append(candidates, session)
	}
	r.mu.RUnlock()

	swept := 0
	for _, session := range candidates {
		session.Lock()
		if session.finishedLocked() || session.idleForLocked() < maxAge {
			session.Unlock()
			continue
		}
		session.finishLocked()
		if err := r.chunks.Purge(session.ID); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("session_id", session.ID).Msg("sweep: purging staged chunks failed, will retry next tick")
		}
		session.Unlock()

		r.Remove(session.ID)
		swept++
		log.Ctx(ctx).Info().Str("session_id", session.ID).Msg("sweep: reclaimed abandoned upload session")
	}

	stale, err := r.chunks.StaleSessions(maxAge)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("sweep: listing stale staging directories failed")
		stale = nil
	}
	for _, sessionID := range stale {
		if _, err := r.Get(sessionID); err == nil {
			continue
		}
		if err := r.chunks.Purge(sessionID); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("sweep: purging orphaned staging failed")
		}
	}

	if r.metrics != nil && swept > 0 {
		r.metrics.SessionsSweptTotal.Add(float64(swept))
	}
	return swept
}

// StartSweeper runs SweepExpired on a fixed interval until ctx is cancelled.
// Run it as a goroutine.
func (r *SessionRegistry) StartSweeper(ctx context.Context, interval time.Duration, maxAge time.Duration) {
	log.Ctx(ctx).Info().Dur("interval", interval).Dur("max_age", maxAge).Msg("starting upload session sweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Ctx(ctx).Info().Msg("stopping upload session sweeper")
			return
		case <-ticker.C:
			swept := r.SweepExpired(ctx, maxAge)
			if swept > 0 {
				log.Ctx(ctx).Debug().Int("swept", swept).Msg("sweep tick finished")
			}
		}
	}
}
