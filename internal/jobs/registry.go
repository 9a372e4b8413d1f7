package jobs

import (
	"errors"
	"sync"

	"github.com/openorbit/gs-tracker/internal/types"
)

var (
	// ErrDuplicateID is returned when a job id is already registered
	ErrDuplicateID = errors.New("jobs: job id already registered")
	// ErrNotFound is returned when no live job has the given id
	ErrNotFound = errors.New("jobs: job not found")
)

// Registry owns the set of live jobs, keyed by id. Insert-if-absent
// semantics make id uniqueness a property of the collection rather
// than of the Job value. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	jobs map[uint64]*types.Job
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[uint64]*types.Job),
	}
}

// Add registers a job, failing with ErrDuplicateID if the id is
// already held by a live job.
func (r *Registry) Add(job *types.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return ErrDuplicateID
	}
	r.jobs[job.ID] = job
	return nil
}

// Get returns the live job with the given id.
func (r *Registry) Get(id uint64) (*types.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	return job, ok
}

// Remove releases an id. Called once a job reaches a terminal state;
// history is retained in the database, not here.
func (r *Registry) Remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.jobs, id)
}

// All returns a snapshot of the live jobs.
func (r *Registry) All() []*types.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*types.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		all = append(all, job)
	}
	return all
}

// Len returns the number of live jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.jobs)
}
