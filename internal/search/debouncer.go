package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/parley/internal/entity"
)

// UserSearcher issues the search request against the REST collaborator
type UserSearcher interface {
	SearchUsers(ctx context.Context, term string) ([]entity.Participant, error)
}

// Debouncer turns raw keystrokes into a trailing-debounced user search.
// Each keystroke restarts the window; only the last pending dispatch fires.
// Results are generation-guarded so a superseded request can never apply
// its result after the fact, even when responses resolve out of order.
type Debouncer struct {
	mu            sync.Mutex
	searcher      UserSearcher
	currentUserId string
	window        time.Duration
	publish       func([]entity.Participant)

	timer      *time.Timer
	generation uint64
	closed     bool
}

// NewDebouncer creates a debouncer publishing result sets to the given
// callback. The callback receives an empty set on clear, error and
// no-result outcomes alike.
func NewDebouncer(searcher UserSearcher, currentUserId string, window time.Duration,
	publish func([]entity.Participant)) *Debouncer {
	if window <= 0 {
		window = 500 * time.Millisecond
	}
	return &Debouncer{
		searcher:      searcher,
		currentUserId: currentUserId,
		window:        window,
		publish:       publish,
	}
}

// Input feeds a keystroke's full text. Empty trimmed text publishes an
// empty result set immediately and cancels any pending dispatch.
func (d *Debouncer) Input(text string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++

	term := strings.TrimSpace(text)
	if term == "" {
		d.mu.Unlock()
		d.publish(nil)
		return
	}

	generation := d.generation
	d.timer = time.AfterFunc(d.window, func() {
		d.dispatch(generation, term)
	})
	d.mu.Unlock()
}

// Close cancels any pending dispatch and drops in-flight results
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// dispatch runs one debounced search if its generation is still current
func (d *Debouncer) dispatch(generation uint64, term string) {
	d.mu.Lock()
	if d.closed || generation != d.generation {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	// Clear intermediate results so a new query never shows stale hits.
	d.publish(nil)

	ctx := context.Background()
	results, err := d.searcher.SearchUsers(ctx, term)

	d.mu.Lock()
	stale := d.closed || generation != d.generation
	d.mu.Unlock()
	if stale {
		return
	}

	if err != nil {
		log.CtxWarn(ctx, "user search failed: term=%s, error=%v", term, err)
		d.publish(nil)
		return
	}

	d.publish(d.filterSelf(results))
}

// filterSelf drops the current user from a result set
func (d *Debouncer) filterSelf(users []entity.Participant) []entity.Participant {
	filtered := make([]entity.Participant, 0, len(users))
	for _, u := range users {
		if u.Id == d.currentUserId {
			continue
		}
		filtered = append(filtered, u)
	}
	return filtered
}
