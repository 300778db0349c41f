package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/amonks/discography/data"
	"github.com/amonks/discography/fetcher"
)

type State int

const (
	StatePending State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateRunning:
		return "RUNNING"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, state := range []State{StatePending, StateRunning, StateSucceeded, StateFailed} {
		if state.String() == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown job state '%s'", text)
}

// Priority orders import jobs against other kinds of queued work. Only
// import jobs exist, so every job is PriorityHigh.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 5
	PriorityHigh   Priority = 10
)

type OutcomeKind int

const (
	// Queued means the job hasn't finished.
	Queued OutcomeKind = iota
	Resolved
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Queued:
		return "queued"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OutcomeKind) UnmarshalText(text []byte) error {
	for _, kind := range []OutcomeKind{Queued, Resolved, Failed} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown outcome '%s'", text)
}

// An Outcome is what an import came to: the artist, or why there isn't one.
type Outcome struct {
	Kind   OutcomeKind  `json:"kind"`
	Artist *data.Artist `json:"artist,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// Resolver imports an artist. *fetcher.Fetcher is one.
type Resolver interface {
	ResolveArtist(ctx context.Context, externalID, rootDir string) (*fetcher.Resolution, error)
}

// A Job imports one MusicBrainz artist. It runs once; a failed job is not
// retried, but the artist can be queued again.
type Job struct {
	ID         uuid.UUID
	ExternalID string
	RootDir    string
	Priority   Priority
	CreatedAt  time.Time

	mu         sync.Mutex
	state      State
	outcome    Outcome
	resolution *fetcher.Resolution
	startedAt  time.Time
	finishedAt time.Time
}

func NewJob(externalID, rootDir string) *Job {
	return &Job{
		ID:         uuid.New(),
		ExternalID: externalID,
		RootDir:    rootDir,
		Priority:   PriorityHigh,
		CreatedAt:  time.Now(),
	}
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) Outcome() Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.outcome
}

// Resolution is what the import saved, or nil. A job interrupted by
// shutdown keeps its partial resolution but is FAILED.
func (j *Job) Resolution() *fetcher.Resolution {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.resolution
}

// JobInfo is a snapshot of a job.
type JobInfo struct {
	ID         uuid.UUID  `json:"id"`
	ExternalID string     `json:"external_id"`
	RootDir    string     `json:"root_dir,omitempty"`
	Priority   Priority   `json:"priority"`
	State      State      `json:"state"`
	Outcome    Outcome    `json:"outcome"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (j *Job) Info() JobInfo {
	j.mu.Lock()
	defer j.mu.Unlock()
	info := JobInfo{
		ID:         j.ID,
		ExternalID: j.ExternalID,
		RootDir:    j.RootDir,
		Priority:   j.Priority,
		State:      j.state,
		Outcome:    j.outcome,
		CreatedAt:  j.CreatedAt,
	}
	if !j.startedAt.IsZero() {
		started := j.startedAt
		info.StartedAt = &started
	}
	if !j.finishedAt.IsZero() {
		finished := j.finishedAt
		info.FinishedAt = &finished
	}
	return info
}

// Run imports the job's artist under its root directory, or under
// defaultRoot if it has none. Errors are recorded on the job rather than
// returned.
func (j *Job) Run(ctx context.Context, resolver Resolver, defaultRoot string, log hclog.Logger) Outcome {
	j.mu.Lock()
	if j.state != StatePending {
		defer j.mu.Unlock()
		return j.outcome
	}
	j.state = StateRunning
	j.startedAt = time.Now()
	j.mu.Unlock()

	log = log.With("job", j.ID.String(), "artist-id", j.ExternalID)

	root := j.RootDir
	if root == "" {
		root = defaultRoot
	}
	if root == "" {
		log.Warn("no music directory configured; importing without a location")
	}

	log.Info("importing artist", "root", root)
	res, err := resolver.ResolveArtist(ctx, j.ExternalID, root)
	if err == nil && ctx.Err() != nil {
		// The importer keeps what it saved before shutdown, but the
		// discography is incomplete.
		err = fmt.Errorf("canceled after %d albums: %w", len(res.Albums), ctx.Err())
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.finishedAt = time.Now()
	if err != nil {
		log.Error("error importing artist", "error", err)
		j.state = StateFailed
		j.resolution = res
		j.outcome = Outcome{Kind: Failed, Reason: err.Error()}
		return j.outcome
	}

	log.Info("imported artist", "artist", res.Artist.Name, "albums", len(res.Albums), "new", len(res.New), "took", j.finishedAt.Sub(j.startedAt))
	j.state = StateSucceeded
	j.resolution = res
	j.outcome = Outcome{Kind: Resolved, Artist: res.Artist}
	return j.outcome
}
