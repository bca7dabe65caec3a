package jobs

import (
	"fmt"
	"sync"
	"time"

	"studio/internal/domain"
)

const unknownError = "An unknown error occurred."

// ClearPolicy selects which terminal jobs ClearCompleted removes.
type ClearPolicy int

const (
	// ClearTerminal removes completed and failed jobs.
	ClearTerminal ClearPolicy = iota
	// ClearSucceeded removes completed jobs only.
	ClearSucceeded
)

func (p ClearPolicy) clears(status domain.JobStatus) bool {
	switch p {
	case ClearSucceeded:
		return status == domain.JobStatusCompleted
	default:
		return status.Terminal()
	}
}

// Patch is a partial job update. Nil fields are left untouched.
type Patch struct {
	Status        *domain.JobStatus
	Results       []string
	Error         *string
	Handle        *string
	StatusMessage *string
	StartedAt     *time.Time
}

// Completed builds the patch that finishes a job with results.
func Completed(results []string, message string) Patch {
	status := domain.JobStatusCompleted
	return Patch{Status: &status, Results: results, StatusMessage: &message}
}

// FailedWith builds the patch that fails a job.
func FailedWith(errMsg, message string) Patch {
	status := domain.JobStatusFailed
	return Patch{Status: &status, Error: &errMsg, StatusMessage: &message}
}

// PollingWith builds the patch that moves a job into polling.
func PollingWith(handle, message string, startedAt time.Time) Patch {
	status := domain.JobStatusPolling
	return Patch{Status: &status, Handle: &handle, StatusMessage: &message, StartedAt: &startedAt}
}

// Progress builds the patch for a not-yet-done poll.
func Progress(handle, message string) Patch {
	p := Patch{StatusMessage: &message}
	if handle != "" {
		p.Handle = &handle
	}
	return p
}

func (p Patch) apply(j domain.Job) domain.Job {
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Results != nil {
		j.Results = append([]string(nil), p.Results...)
	}
	if p.Error != nil {
		j.Error = *p.Error
	}
	if p.Handle != nil {
		j.Handle = *p.Handle
	}
	if p.StatusMessage != nil {
		j.StatusMessage = *p.StatusMessage
	}
	if p.StartedAt != nil {
		j.StartedAt = *p.StartedAt
	}
	return j
}

// Store is the ordered, newest-first collection of jobs of one kind. Every
// mutation is folded into the live state under the store lock.
type Store struct {
	kind domain.Kind
	ids  IDGenerator
	now  func() time.Time

	mu     sync.RWMutex
	jobs   []domain.Job
	issued map[string]struct{}
}

// Option customizes a Store.
type Option func(*Store)

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) {
		if g != nil {
			s.ids = g
		}
	}
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store for the given kind.
func NewStore(kind domain.Kind, opts ...Option) *Store {
	s := &Store{
		kind:   kind,
		ids:    UUIDGenerator{},
		now:    time.Now,
		issued: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind returns the job kind held by the store.
func (s *Store) Kind() domain.Kind { return s.kind }

// Create assigns a fresh id and prepends a generating job.
func (s *Store) Create(owner string, params domain.Params) (domain.Job, error) {
	if params.Kind() != s.kind {
		return domain.Job{}, fmt.Errorf("%w: %s parameters required", domain.ErrInvalidInput, s.kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.ids.NewID()
	for _, dup := s.issued[id]; dup; _, dup = s.issued[id] {
		id = s.ids.NewID()
	}
	s.issued[id] = struct{}{}

	job := domain.Job{
		ID:            id,
		Kind:          s.kind,
		Owner:         owner,
		Status:        domain.JobStatusGenerating,
		Params:        params,
		StatusMessage: "Initializing...",
		CreatedAt:     s.now().UTC(),
	}
	job = job.Clone()
	s.jobs = append([]domain.Job{job}, s.jobs...)
	return job.Clone(), nil
}

// Apply is the single reducer entry point. fn receives a copy of the live job
// and returns its successor; the successor is reconciled against the lifecycle
// rules before it replaces the live value. Absent ids are a no-op.
func (s *Store) Apply(id string, fn func(domain.Job) domain.Job) (domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Job{}, false
	}
	cur := s.jobs[idx]
	next := reconcile(cur, fn(cur.Clone()))
	s.jobs[idx] = next
	return next.Clone(), true
}

// Update applies a partial patch through Apply.
func (s *Store) Update(id string, p Patch) (domain.Job, bool) {
	return s.Apply(id, p.apply)
}

// Delete removes the job. Deleting an absent id is a no-op.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.jobs = append(s.jobs[:idx:idx], s.jobs[idx+1:]...)
	return true
}

// DeleteOwned removes the job only when owner created it. A job of another
// owner is treated as absent.
func (s *Store) DeleteOwned(owner, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 || s.jobs[idx].Owner != owner {
		return false
	}
	s.jobs = append(s.jobs[:idx:idx], s.jobs[idx+1:]...)
	return true
}

// ClearCompleted removes owner's terminal jobs selected by policy and reports
// how many were removed. Generating and polling jobs are always retained.
func (s *Store) ClearCompleted(owner string, policy ClearPolicy) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.jobs[:0:0]
	for _, j := range s.jobs {
		if j.Owner != owner || !policy.clears(j.Status) {
			kept = append(kept, j)
		}
	}
	removed := len(s.jobs) - len(kept)
	s.jobs = kept
	return removed
}

// Get returns a copy of the job.
func (s *Store) Get(id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Job{}, false
	}
	return s.jobs[idx].Clone(), true
}

// List returns copies of all jobs, newest first.
func (s *Store) List() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = j.Clone()
	}
	return out
}

// Polling returns the ids of polling jobs in list order.
func (s *Store) Polling() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, j := range s.jobs {
		if j.Status == domain.JobStatusPolling {
			ids = append(ids, j.ID)
		}
	}
	return ids
}

// HasPolling reports whether any job is polling.
func (s *Store) HasPolling() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, j := range s.jobs {
		if j.Status == domain.JobStatusPolling {
			return true
		}
	}
	return false
}

// Len returns the number of live jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Store) indexLocked(id string) int {
	for i := range s.jobs {
		if s.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

// reconcile enforces identity immutability, monotonic status transitions and
// the result/error exclusivity of terminal states.
func reconcile(cur, next domain.Job) domain.Job {
	if cur.Status.Terminal() {
		return cur
	}
	if next.Status != cur.Status && !cur.Status.CanTransitionTo(next.Status) {
		return cur
	}

	next.ID = cur.ID
	next.Kind = cur.Kind
	next.Owner = cur.Owner
	next.Params = cur.Params
	next.CreatedAt = cur.CreatedAt

	switch next.Status {
	case domain.JobStatusCompleted:
		if len(next.Results) == 0 {
			return cur
		}
		next.Error = ""
		next.Handle = ""
	case domain.JobStatusFailed:
		next.Results = nil
		next.Handle = ""
		if next.Error == "" {
			next.Error = unknownError
		}
	default:
		next.Results = nil
		next.Error = ""
	}
	return next
}
