package usecases

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/samirrijal/maptrace/internal/core/domain"
	"github.com/samirrijal/maptrace/internal/core/fragment"
	"github.com/samirrijal/maptrace/internal/core/ports"
	"github.com/samirrijal/maptrace/internal/pkg/metrics"
)

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidSession reports whether id is an acceptable session id.
func ValidSession(id string) bool {
	return sessionPattern.MatchString(id)
}

const lockStripes = 64

// sessionLocks serializes read-modify-write cycles per session.
type sessionLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *sessionLocks) lock(session string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(session))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}

// FragmentService owns every write to session fragments. Callers never
// patch stored text: they mutate a parsed State and the whole fragment is
// replaced.
type FragmentService struct {
	store     ports.FragmentStore
	publisher ports.EventPublisher
	locks     sessionLocks
	now       func() time.Time
}

// NewFragmentService creates a new FragmentService. publisher may be nil.
func NewFragmentService(store ports.FragmentStore, publisher ports.EventPublisher) *FragmentService {
	return &FragmentService{store: store, publisher: publisher, now: time.Now}
}

// Get returns the parsed fragment of a session. Unknown sessions are empty.
func (s *FragmentService) Get(ctx context.Context, session string) (*fragment.State, error) {
	if !ValidSession(session) {
		return nil, ErrInvalidSession
	}
	text, err := s.store.Load(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("load fragment: %w", err)
	}
	return fragment.Parse(text), nil
}

// Replace stores text as the session fragment after normalizing it and
// returns the stored form.
func (s *FragmentService) Replace(ctx context.Context, session, text, source string) (string, error) {
	next := fragment.Parse(text)
	return s.Update(ctx, session, source, func(st *fragment.State) error {
		*st = *next
		return nil
	})
}

// Patch sets and deletes keys. A nil value sets a flag. Deletions apply
// before sets, so a key present in both moves to the end.
func (s *FragmentService) Patch(ctx context.Context, session string, set map[string]*string, del []string, source string) (string, error) {
	return s.Update(ctx, session, source, func(st *fragment.State) error {
		for _, k := range del {
			st.Delete(k)
		}
		for _, k := range slices.Sorted(maps.Keys(set)) {
			if v := set[k]; v != nil {
				st.Set(k, *v)
			} else {
				st.SetFlag(k)
			}
		}
		return nil
	})
}

// Update loads the session fragment, applies fn and stores the result
// when it changed. Updates to the same session never interleave.
func (s *FragmentService) Update(ctx context.Context, session, source string, fn func(*fragment.State) error) (string, error) {
	if !ValidSession(session) {
		return "", ErrInvalidSession
	}
	unlock := s.locks.lock(session)
	defer unlock()

	before, err := s.store.Load(ctx, session)
	if err != nil {
		return "", fmt.Errorf("load fragment: %w", err)
	}
	st := fragment.Parse(before)
	if err := fn(st); err != nil {
		return "", err
	}
	after := st.String()
	if after == before {
		return after, nil
	}

	if err := s.store.Replace(ctx, session, after); err != nil {
		return "", fmt.Errorf("replace fragment: %w", err)
	}
	metrics.FragmentWrites.WithLabelValues(source).Inc()
	s.publish(ctx, session, after, source)
	return after, nil
}

func (s *FragmentService) publish(ctx context.Context, session, text, source string) {
	if s.publisher == nil {
		return
	}
	change := &domain.FragmentChange{Session: session, Fragment: text, Source: source, At: s.now().UTC()}
	if err := s.publisher.PublishFragmentChange(ctx, change); err != nil {
		metrics.FragmentEventsPublished.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "publish fragment change", "session", session, "error", err)
		return
	}
	metrics.FragmentEventsPublished.WithLabelValues("ok").Inc()
}
