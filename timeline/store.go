// Package timeline is the single source of truth for generation records.
//
// Records are kept newest-insertion-first: [Store.Begin] always inserts at the
// head. Completion replaces the placeholder in place, keeping its id and
// creation time; failure removes it. Each begun generation reaches exactly one
// terminal transition; later calls for the same id are no-ops.
//
// Two orderings are exposed: [Store.InsertionOrder] and [Store.Chronological]
// (createdAt descending). They agree except briefly when generations begun
// close together finish out of order.
package timeline

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/mosaic"
)

var (
	// ErrEmptyResult is returned when completing with no media.
	ErrEmptyResult = errors.New("timeline: result has no media")

	// ErrKindMismatch is returned when a result does not match the requested media kind.
	ErrKindMismatch = errors.New("timeline: result does not match requested media kind")
)

// ChangeType describes a mutation.
type ChangeType string

const (
	ChangeBegun     ChangeType = "begun"
	ChangeCompleted ChangeType = "completed"
	ChangeFailed    ChangeType = "failed"
	ChangeSeeded    ChangeType = "seeded"
)

// Change is delivered to subscribers after every mutation.
type Change struct {
	Type    ChangeType
	ID      string
	Version uint64
}

// Store holds the generation records.
type Store struct {
	mu      sync.RWMutex
	records []Record
	version uint64
	now     func() time.Time
	newID   func() string

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
		subs:  make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin inserts a loading placeholder at the head and returns its id.
func (s *Store) Begin(prompt string, kind ai.MediaKind, sourceImageRef string) string {
	s.mu.Lock()
	id := s.newID()
	rec := Record{
		ID:             id,
		Kind:           KindLoading,
		MediaKind:      kind,
		Prompt:         prompt,
		CreatedAt:      s.now(),
		SourceImageRef: sourceImageRef,
	}
	s.records = slices.Insert(s.records, 0, rec)
	s.version++
	v := s.version
	s.mu.Unlock()

	s.notify(Change{Type: ChangeBegun, ID: id, Version: v})
	return id
}

// Complete replaces the loading record id with its completed variant. It
// returns false without error when id is gone or already terminal.
func (s *Store) Complete(id string, res Result) (bool, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 || !s.records[i].Loading() {
		s.mu.Unlock()
		return false, nil
	}

	rec := s.records[i]
	switch rec.MediaKind {
	case ai.MediaImage:
		if len(res.Videos) > 0 {
			s.mu.Unlock()
			return false, ErrKindMismatch
		}
		if len(res.Images) == 0 {
			s.mu.Unlock()
			return false, ErrEmptyResult
		}
		rec.Kind = KindImage
		rec.Images = slices.Clone(res.Images)
	case ai.MediaVideo:
		if len(res.Images) > 0 {
			s.mu.Unlock()
			return false, ErrKindMismatch
		}
		if len(res.Videos) == 0 {
			s.mu.Unlock()
			return false, ErrEmptyResult
		}
		rec.Kind = KindVideo
		rec.Videos = slices.Clone(res.Videos)
	}
	if res.Prompt != "" {
		rec.Prompt = res.Prompt
	}
	s.records[i] = rec
	s.version++
	v := s.version
	s.mu.Unlock()

	s.notify(Change{Type: ChangeCompleted, ID: id, Version: v})
	return true, nil
}

// Fail removes the loading record id and returns err for the caller to
// present. Completed records are left alone.
func (s *Store) Fail(id string, err error) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 || !s.records[i].Loading() {
		s.mu.Unlock()
		return err
	}
	s.records = slices.Delete(s.records, i, i+1)
	s.version++
	v := s.version
	s.mu.Unlock()

	s.notify(Change{Type: ChangeFailed, ID: id, Version: v})
	return err
}

// Seed appends completed records after everything already stored. Records
// without an id get one; loading or empty records are skipped.
func (s *Store) Seed(records ...Record) {
	s.mu.Lock()
	added := 0
	for _, r := range records {
		if r.Loading() || r.Len() == 0 {
			continue
		}
		if r.ID == "" {
			r.ID = s.newID()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now()
		}
		s.records = append(s.records, r.clone())
		added++
	}
	if added == 0 {
		s.mu.Unlock()
		return
	}
	s.version++
	v := s.version
	s.mu.Unlock()

	s.notify(Change{Type: ChangeSeeded, Version: v})
}

// Get returns a copy of the record with id.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Record{}, false
	}
	return s.records[i].clone(), true
}

// List returns a snapshot in newest-insertion-first order.
func (s *Store) List() []Record {
	return s.InsertionOrder()
}

// InsertionOrder returns a snapshot in newest-insertion-first order.
func (s *Store) InsertionOrder() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out
}

// Chronological returns a snapshot sorted by createdAt descending. Ties keep
// insertion order.
func (s *Store) Chronological() []Record {
	out := s.InsertionOrder()
	slices.SortStableFunc(out, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Pending returns the number of loading records.
func (s *Store) Pending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.records {
		if r.Loading() {
			n++
		}
	}
	return n
}

// Version increases with every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe returns a channel of changes and a function to stop receiving
// them. Changes are dropped for subscribers that fall behind.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.records, func(r Record) bool { return r.ID == id })
}
