package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jschless/armymarkdown/internal/validate"
)

// JobStatus represents the state of a compile job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusValidating JobStatus = "validating"
	StatusGenerating JobStatus = "generating"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks the state of a single memo compilation.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	source   []byte
	markup   string
	warnings []validate.Issue
	issues   []validate.Issue // blocking issues on validation failure
	errors   []string
	kind     string
	done     chan struct{}
	once     sync.Once
}

// NewJob creates a queued job for source. filename selects the parser and
// defaults to memo.amd.
func NewJob(filename string, source []byte) *Job {
	if filename == "" {
		filename = "memo.amd"
	}
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		ContentHash: ContentHashHex(source),
		CreatedAt:   now,
		UpdatedAt:   now,
		source:      source,
		done:        make(chan struct{}),
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically. Terminal statuses release Wait.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	j.mu.Unlock()
	if status.Terminal() {
		j.finish()
	}
}

func (j *Job) finish() {
	j.once.Do(func() {
		if j.done != nil {
			close(j.done)
		}
	})
}

// Done is closed once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// Fail records the error kind and message and marks the job failed.
func (j *Job) Fail(phase, kind string, err error, issues []validate.Issue) {
	j.mu.Lock()
	j.kind = kind
	j.issues = issues
	j.errors = append(j.errors, err.Error())
	j.mu.Unlock()
	j.SetStatus(StatusFailed, phase)
}

// SetResult stores the generated markup and non-blocking warnings.
func (j *Job) SetResult(markup string, warnings []validate.Issue) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.markup = markup
	j.warnings = warnings
	j.UpdatedAt = time.Now()
}

// Markup returns the generated LaTeX once the job has completed.
func (j *Job) Markup() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.markup, j.Status == StatusCompleted
}

// Source returns the raw memo bytes.
func (j *Job) Source() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.source
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string           `json:"job_id"`
	Status      JobStatus        `json:"status"`
	Phase       string           `json:"phase"`
	Filename    string           `json:"filename"`
	ContentHash string           `json:"content_hash"`
	ErrorKind   string           `json:"error_kind,omitempty"`
	Errors      []string         `json:"errors"`
	Issues      []validate.Issue `json:"issues,omitempty"`
	Warnings    []validate.Issue `json:"warnings"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	warnings := append([]validate.Issue{}, j.warnings...)
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		ContentHash: j.ContentHash,
		ErrorKind:   j.kind,
		Errors:      errs,
		Issues:      append([]validate.Issue(nil), j.issues...),
		Warnings:    warnings,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
