// Package progress tracks the phases of an index build. Each build gets
// its own session handle so callers can poll a specific build by ID
// instead of sharing one global mutable state.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the build state machine:
// idle → loading → chunking → embedding → saving → completed | error.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusChunking  Status = "chunking"
	StatusEmbedding Status = "embedding"
	StatusSaving    Status = "saving"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Phase percent bands: loading 0–20, chunking 20–50, embedding 50–90,
// saving 90–100.
const (
	loadingBand   = 20.0
	chunkingBand  = 30.0
	embeddingBand = 40.0
	savingBand    = 10.0
)

// Snapshot is a read-only view of a build, shaped for the polling API.
type Snapshot struct {
	BuildID                   string  `json:"buildId"`
	Status                    Status  `json:"status"`
	CurrentStep               string  `json:"currentStep"`
	TotalDocuments            int     `json:"totalDocuments"`
	LoadedDocuments           int     `json:"loadedDocuments"`
	TotalChunks               int     `json:"totalChunks"`
	ProcessedChunks           int     `json:"processedChunks"`
	ProgressPercent           float64 `json:"progressPercent"`
	ElapsedSeconds            float64 `json:"elapsedSeconds"`
	EstimatedRemainingSeconds float64 `json:"estimatedRemainingSeconds"`
	ErrorMessage              string  `json:"errorMessage,omitempty"`
}

// Build is one build session. All mutation happens behind its mutex;
// Snapshot never blocks on in-flight phase work.
type Build struct {
	mu sync.Mutex

	id                 string
	status             Status
	currentStep        string
	totalDocuments     int
	loadedDocuments    int
	totalChunks        int
	processedChunks    int
	percent            float64
	startTime          time.Time
	estimatedRemaining float64
	errorMessage       string

	now func() time.Time
}

// ID returns the build's identifier.
func (b *Build) ID() string { return b.id }

// UpdateDocumentsLoaded reports loading progress; loading occupies the
// first 20% of the build.
func (b *Build) UpdateDocumentsLoaded(loaded, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	loaded = clamp(loaded, total)
	b.loadedDocuments = loaded
	b.totalDocuments = total
	b.setPercent(frac(loaded, total) * loadingBand)
}

// StartChunking moves the build into the chunking phase.
func (b *Build) StartChunking(totalChunks int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = StatusChunking
	b.currentStep = "Chunking documents"
	b.totalChunks = totalChunks
	b.processedChunks = 0
	b.setPercent(loadingBand)
}

// UpdateChunking reports chunking progress (20–50%).
func (b *Build) UpdateChunking(processed, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	processed = clamp(processed, total)
	b.processedChunks = processed
	b.totalChunks = total
	b.setPercent(loadingBand + frac(processed, total)*chunkingBand)
}

// StartEmbedding moves the build into the embedding phase.
func (b *Build) StartEmbedding(totalChunks int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = StatusEmbedding
	b.currentStep = "Generating embeddings"
	b.totalChunks = totalChunks
	b.processedChunks = 0
	b.setPercent(loadingBand + chunkingBand)
}

// UpdateEmbedding reports embedding progress (50–90%) and refreshes the
// remaining-time estimate from the observed per-chunk rate.
func (b *Build) UpdateEmbedding(processed, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	processed = clamp(processed, total)
	b.processedChunks = processed
	b.totalChunks = total
	b.setPercent(loadingBand + chunkingBand + frac(processed, total)*embeddingBand)

	if processed > 0 {
		elapsed := b.now().Sub(b.startTime).Seconds()
		b.estimatedRemaining = float64(total-processed) * (elapsed / float64(processed))
	}
}

// StartSaving moves the build into the saving phase.
func (b *Build) StartSaving(totalChunks int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = StatusSaving
	b.currentStep = "Saving chunks"
	b.totalChunks = totalChunks
	b.processedChunks = 0
	b.setPercent(loadingBand + chunkingBand + embeddingBand)
}

// UpdateSaving reports saving progress (90–100%).
func (b *Build) UpdateSaving(processed, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	processed = clamp(processed, total)
	b.processedChunks = processed
	b.totalChunks = total
	b.setPercent(loadingBand + chunkingBand + embeddingBand + frac(processed, total)*savingBand)
}

// Complete marks the build finished at 100%.
func (b *Build) Complete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = StatusCompleted
	b.currentStep = "Build complete"
	b.estimatedRemaining = 0
	b.setPercent(100)
}

// Error marks the build failed, preserving the percent reached so far.
func (b *Build) Error(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = StatusError
	b.currentStep = "Build failed"
	b.errorMessage = message
	b.estimatedRemaining = 0
}

// Snapshot returns a point-in-time copy with elapsed time recomputed.
func (b *Build) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		BuildID:                   b.id,
		Status:                    b.status,
		CurrentStep:               b.currentStep,
		TotalDocuments:            b.totalDocuments,
		LoadedDocuments:           b.loadedDocuments,
		TotalChunks:               b.totalChunks,
		ProcessedChunks:           b.processedChunks,
		ProgressPercent:           b.percent,
		ElapsedSeconds:            b.now().Sub(b.startTime).Seconds(),
		EstimatedRemainingSeconds: b.estimatedRemaining,
		ErrorMessage:              b.errorMessage,
	}
}

// setPercent raises the percent, never lowers it: progress within one
// build is monotonically non-decreasing.
func (b *Build) setPercent(p float64) {
	if p > 100 {
		p = 100
	}
	if p > b.percent {
		b.percent = p
	}
}

func clamp(processed, total int) int {
	if total >= 0 && processed > total {
		return total
	}
	return processed
}

func frac(processed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(processed) / float64(total)
}

// Tracker creates build sessions and serves lookups by ID. The most
// recently started build is the "current" one reported to pollers that
// don't name a build.
type Tracker struct {
	mu      sync.Mutex
	current *Build
	builds  map[string]*Build
	now     func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		builds: make(map[string]*Build),
		now:    time.Now,
	}
}

// Start begins a new build session in the loading state and makes it
// current. Previous sessions stay addressable by ID.
func (t *Tracker) Start() *Build {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := &Build{
		id:          uuid.NewString(),
		status:      StatusLoading,
		currentStep: "Loading documents",
		startTime:   t.now(),
		now:         t.now,
	}
	t.builds[b.id] = b
	t.current = b
	return b
}

// Get returns the build with the given ID.
func (t *Tracker) Get(id string) (*Build, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.builds[id]
	return b, ok
}

// Current returns the most recently started build, or nil.
func (t *Tracker) Current() *Build {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// CurrentSnapshot returns the current build's snapshot, or an idle one
// if no build has started yet.
func (t *Tracker) CurrentSnapshot() Snapshot {
	b := t.Current()
	if b == nil {
		return Snapshot{Status: StatusIdle}
	}
	return b.Snapshot()
}
