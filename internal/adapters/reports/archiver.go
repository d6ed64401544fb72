// Package reports archives committed generation reports to blob storage.
package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"kineticcore/internal/blob"
	"kineticcore/internal/core"
)

// Status describes the lifecycle stage of an archive job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// OperationArchive labels audit entries written by the archiver.
const OperationArchive = "archive_report"

// DefaultQueueSize bounds the number of pending archive jobs.
const DefaultQueueSize = 32

// Document is the archived payload.
type Document struct {
	Report     core.GenerationReport `json:"report"`
	Summary    core.CommitSummary    `json:"summary"`
	ArchivedAt time.Time             `json:"archived_at"`
}

// Record tracks one archive job.
type Record struct {
	ID          string     `json:"id"`
	ReportID    string     `json:"report_id"`
	ModelID     string     `json:"model_id"`
	Key         string     `json:"key"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	SizeBytes   int64      `json:"size_bytes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Key returns the object key a report is archived under.
func Key(modelID, reportID string) string {
	return modelID + "/" + reportID + ".json"
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithLogger sets the logger.
func WithLogger(logger core.Logger) Option {
	return func(a *Archiver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAudit records job transitions.
func WithAudit(audit core.AuditRecorder) Option {
	return func(a *Archiver) { a.audit = audit }
}

// WithClock overrides the time source.
func WithClock(clock core.Clock) Option {
	return func(a *Archiver) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithQueueSize changes the queue capacity. Values below one are ignored.
func WithQueueSize(n int) Option {
	return func(a *Archiver) {
		if n > 0 {
			a.queueSize = n
		}
	}
}

// Archiver writes reports to a blob store on a background goroutine.
type Archiver struct {
	store     blob.Store
	audit     core.AuditRecorder
	logger    core.Logger
	clock     core.Clock
	queueSize int

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inflight sync.WaitGroup
}

type task struct {
	id  string
	doc Document
}

// NewArchiver constructs an archiver over store. Call Start to begin
// processing.
func NewArchiver(store blob.Store, opts ...Option) *Archiver {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Archiver{
		store:     store,
		logger:    discardLogger{},
		clock:     core.ClockFunc(nil),
		queueSize: DefaultQueueSize,
		jobs:      make(map[string]*Record),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.queue = make(chan task, a.queueSize)
	return a
}

// Start begins processing archive jobs.
func (a *Archiver) Start() {
	a.wg.Add(1)
	go a.loop()
}

// Stop halts the worker and waits for the in-flight job.
func (a *Archiver) Stop(ctx context.Context) error {
	a.cancel()
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain waits for every queued job to finish and then stops the worker.
func (a *Archiver) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.Stop(ctx)
}

func (a *Archiver) loop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case t := <-a.queue:
			a.process(t)
		}
	}
}

// Hook adapts the archiver to a service commit hook. Enqueue failures are
// logged; the commit itself has already succeeded.
func (a *Archiver) Hook() core.CommitHook {
	return func(ctx context.Context, report core.GenerationReport, summary core.CommitSummary) {
		if _, err := a.Enqueue(ctx, report, summary); err != nil {
			a.logger.Warn("archive enqueue failed", "report", report.ID, "error", err)
		}
	}
}

// Enqueue schedules a report for archiving and returns the queued record.
func (a *Archiver) Enqueue(ctx context.Context, report core.GenerationReport, summary core.CommitSummary) (Record, error) {
	if a.store == nil {
		return Record{}, fmt.Errorf("archive store not configured")
	}
	if report.ID == "" || report.ModelID == "" {
		return Record{}, fmt.Errorf("report id and model id required")
	}
	now := a.clock.Now()
	record := Record{
		ID:        uuid.NewString(),
		ReportID:  report.ID,
		ModelID:   report.ModelID,
		Key:       Key(report.ModelID, report.ID),
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	a.mu.Lock()
	stored := record
	a.jobs[record.ID] = &stored
	a.mu.Unlock()

	a.inflight.Add(1)
	select {
	case a.queue <- task{id: record.ID, doc: Document{Report: report, Summary: summary}}:
	default:
		a.inflight.Done()
		a.mu.Lock()
		delete(a.jobs, record.ID)
		a.mu.Unlock()
		return Record{}, fmt.Errorf("archive queue full")
	}
	a.record(ctx, record, "")
	return record, nil
}

// Get returns a snapshot of a job.
func (a *Archiver) Get(id string) (Record, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.jobs[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

func (a *Archiver) process(t task) {
	defer a.inflight.Done()
	a.update(t.id, StatusRunning, "", 0)

	t.doc.ArchivedAt = a.clock.Now()
	payload, err := json.MarshalIndent(t.doc, "", "  ")
	if err != nil {
		a.update(t.id, StatusFailed, fmt.Sprintf("marshal report: %v", err), 0)
		return
	}
	key := Key(t.doc.Report.ModelID, t.doc.Report.ID)
	info, err := a.store.Put(a.ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"model":   t.doc.Report.ModelID,
			"report":  t.doc.Report.ID,
			"applied": strconv.Itoa(len(t.doc.Summary.Applied)),
		},
	})
	if err != nil {
		a.update(t.id, StatusFailed, fmt.Sprintf("store report: %v", err), 0)
		return
	}
	a.update(t.id, StatusSucceeded, "", info.Size)
}

func (a *Archiver) update(id string, status Status, message string, size int64) {
	now := a.clock.Now()
	a.mu.Lock()
	record, ok := a.jobs[id]
	if !ok {
		a.mu.Unlock()
		return
	}
	record.Status = status
	record.Error = message
	record.UpdatedAt = now
	if size > 0 {
		record.SizeBytes = size
	}
	if status == StatusSucceeded || status == StatusFailed {
		record.CompletedAt = &now
	}
	snapshot := record.copy()
	a.mu.Unlock()

	switch status {
	case StatusFailed:
		a.logger.Error("report archive failed", "report", snapshot.ReportID, "key", snapshot.Key, "error", message)
	case StatusSucceeded:
		a.logger.Info("report archived", "report", snapshot.ReportID, "key", snapshot.Key, "bytes", size)
	}
	a.record(a.ctx, snapshot, message)
}

func (a *Archiver) record(ctx context.Context, r Record, message string) {
	if a.audit == nil || r.Status == StatusRunning {
		return
	}
	entry := core.AuditEntry{
		ID:        uuid.NewString(),
		Operation: OperationArchive,
		Entity:    core.EntityModel,
		Action:    core.ActionCreate,
		ModelID:   r.ModelID,
		EntityID:  r.ReportID,
		Status:    core.AuditStatusSuccess,
		Timestamp: r.UpdatedAt,
	}
	if r.Status == StatusFailed {
		entry.Status = core.AuditStatusError
		entry.Error = message
	}
	if r.CompletedAt != nil {
		entry.Duration = r.CompletedAt.Sub(r.CreatedAt)
	}
	a.audit.Record(ctx, entry)
}

func (r Record) copy() Record {
	dup := r
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		dup.CompletedAt = &at
	}
	return dup
}

// Load reads an archived document back from store.
func Load(ctx context.Context, store blob.Store, key string) (Document, blob.Info, error) {
	info, rc, err := store.Get(ctx, key)
	if err != nil {
		return Document{}, blob.Info{}, err
	}
	defer func() { _ = rc.Close() }()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return Document{}, blob.Info{}, fmt.Errorf("read %s: %w", key, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, blob.Info{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, info, nil
}

// List returns the archived objects of a model, or of every model when
// modelID is empty.
func List(ctx context.Context, store blob.Store, modelID string) ([]blob.Info, error) {
	prefix := ""
	if modelID != "" {
		prefix = modelID + "/"
	}
	return store.List(ctx, prefix)
}

// IsArchived reports whether a report already has an archive object.
func IsArchived(ctx context.Context, store blob.Store, modelID, reportID string) (bool, error) {
	_, err := store.Head(ctx, Key(modelID, reportID))
	if errors.Is(err, blob.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
