package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quotecore/internal/blob"
)

// Sentinel errors reported by service command handlers.
var (
	// ErrStoreUnavailable is returned for every write attempted after a
	// failed load, until a reload succeeds.
	ErrStoreUnavailable = errors.New("record store unavailable: reload required before writing")
	// ErrDeletionPending rejects saves and new triggers while a deletion
	// awaits confirmation.
	ErrDeletionPending = errors.New("deletion pending confirmation")
	// ErrNothingMarked reports a delete trigger with no flagged rows.
	ErrNothingMarked = errors.New("no quotes marked for deletion")
	// ErrNoPendingDeletion reports a confirm without a prior trigger.
	ErrNoPendingDeletion = errors.New("no deletion pending")
	// ErrProjectExists rejects a rename or insert that would collide.
	ErrProjectExists = errors.New("project name already exists")
	// ErrProjectNotFound reports an operation on an unknown project.
	ErrProjectNotFound = errors.New("project not found")
	// ErrQuoteNotFound reports an operation on an unknown quote.
	ErrQuoteNotFound = errors.New("quote not found")
	// ErrNoAttachment reports a URL request for a quote without one.
	ErrNoAttachment = errors.New("quote has no attachment")
)

// Service threads the explicit application state — canonical records, edit
// buffer, deletion protocol, load latch — through synchronous command
// handlers. One user action maps to one handler; each is a state transition
// plus at most one full-snapshot persistence call.
type Service struct {
	records     RecordStore
	attachments blob.Store
	engine      *RulesEngine
	logger      Logger
	metrics     MetricsRecorder
	tracer      Tracer
	nowFn       func() time.Time

	mu         sync.Mutex
	state      sessionState
	buffer     *EditBuffer
	deletion   *DeletionCoordinator
	loadFailed bool
	dashboard  *DashboardSummary
}

// Option customizes service construction.
type Option func(*Service)

// WithLogger wires a structured logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics wires an operation metrics recorder.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer wires an operation tracer.
func WithTracer(tracer Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithClock overrides the modification-timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithRulesEngine replaces the default policy set.
func WithRulesEngine(engine *RulesEngine) Option {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// NewService constructs a service over the given record and attachment stores.
func NewService(records RecordStore, attachments blob.Store, opts ...Option) *Service {
	s := &Service{
		records:     records,
		attachments: attachments,
		engine:      NewDefaultRulesEngine(),
		logger:      noopLogger{},
		metrics:     noopMetrics{},
		tracer:      noopTracer{},
		nowFn:       func() time.Time { return time.Now().UTC() },
		state:       newSessionState(),
		buffer:      NewEditBuffer(),
		deletion:    NewDeletionCoordinator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// instrument opens a trace span and returns the completion callback feeding
// metrics and the span.
func (s *Service) instrument(ctx context.Context, op string) (context.Context, func(error)) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	return ctx, func(err error) {
		s.metrics.Observe(ctx, op, err == nil, time.Since(started))
		span.End(err)
	}
}

// Load reads the full record set from the store and resets session state
// around it. On failure the service keeps operating on an empty state but
// latches all writes off until a later Load succeeds.
func (s *Service) Load(ctx context.Context) error {
	ctx, done := s.instrument(ctx, "load")
	var err error
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	snap, err = s.records.Load(ctx)
	if err != nil {
		s.state = newSessionState()
		s.buffer.Clear()
		s.deletion.Cancel()
		s.loadFailed = true
		s.dashboard = nil
		s.logger.Error("record store load failed; writes disabled until reload", "driver", s.records.Driver(), "error", err)
		err = fmt.Errorf("load record store: %w", err)
		return err
	}

	s.state.importSnapshot(snap)
	s.rederiveLocked(&s.state)
	s.buffer.Clear()
	s.deletion.Cancel()
	s.loadFailed = false
	s.dashboard = nil
	s.logger.Info("record store loaded", "driver", s.records.Driver(), "quotes", len(s.state.quotes), "projects", len(s.state.projects))
	return nil
}

// rederiveLocked recomputes latest-arrival dates across the given state.
func (s *Service) rederiveLocked(state *sessionState) {
	for _, q := range DeriveLatestArrival(state.quotesSorted(), state.projects) {
		state.quotes[q.ID] = q
	}
}

func (s *Service) guardWriteLocked() error {
	if s.loadFailed {
		return ErrStoreUnavailable
	}
	return nil
}

// evaluateLocked runs the rules engine over a pending state and its recorded
// changes. Warnings are logged; blocking violations abort with a
// RuleViolationError.
func (s *Service) evaluateLocked(ctx context.Context, pending *sessionState, changes []Change) error {
	if s.engine == nil || len(changes) == 0 {
		return nil
	}
	res, err := s.engine.Evaluate(ctx, stateView{state: pending}, changes)
	if err != nil {
		return fmt.Errorf("evaluate rules: %w", err)
	}
	for _, v := range res.Violations {
		if v.Severity != SeverityBlock {
			s.logger.Warn("rule violation", "rule", v.Rule, "severity", string(v.Severity), "entity", string(v.Entity), "id", v.EntityID, "message", v.Message)
		}
	}
	if res.HasBlocking() {
		return RuleViolationError{Result: res}
	}
	return nil
}

// persistLocked writes the pending state wholesale and commits it on success.
func (s *Service) persistLocked(ctx context.Context, pending sessionState) error {
	if err := s.records.Save(ctx, pending.snapshot()); err != nil {
		return fmt.Errorf("save record store: %w", err)
	}
	s.state = pending
	s.dashboard = nil
	return nil
}

// AddQuoteInput carries the fields of an "add quote" action. Attachment bytes
// are optional; when present they are uploaded before any record mutation.
type AddQuoteInput struct {
	Project          string
	Item             string
	Supplier         string
	UnitPrice        float64
	Quantity         int
	ExpectedDelivery Date
	Status           Status
	Selected         bool

	Attachment            []byte
	AttachmentContentType string
}

// AddQuote uploads the optional attachment, allocates the next quote ID,
// derives totals and the latest-arrival date, and persists immediately. An
// upload failure aborts before canonical state is touched, so no record ever
// references an attachment that was never stored.
func (s *Service) AddQuote(ctx context.Context, input AddQuoteInput) (Quote, error) {
	ctx, done := s.instrument(ctx, "add_quote")
	var err error
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.guardWriteLocked(); err != nil {
		return Quote{}, err
	}

	var attachmentKey string
	if len(input.Attachment) > 0 {
		attachmentKey, err = s.uploadAttachmentLocked(ctx, input)
		if err != nil {
			err = fmt.Errorf("upload attachment: %w", err)
			return Quote{}, err
		}
	}

	now := s.nowFn()
	status := input.Status
	if status == "" {
		status = StatusInquiry
	}
	quote := Quote{
		ID:               s.state.nextQuoteID(),
		Selected:         input.Selected,
		Project:          input.Project,
		Item:             input.Item,
		Supplier:         input.Supplier,
		UnitPrice:        input.UnitPrice,
		Quantity:         input.Quantity,
		ExpectedDelivery: input.ExpectedDelivery,
		Status:           status,
		UpdatedAt:        now,
		Attachment:       attachmentKey,
	}
	quote.Total = LineTotal(quote)
	if project, ok := s.state.projects[quote.Project]; ok && !project.DueDate.IsZero() {
		quote.LatestArrival = project.DueDate.AddDays(-project.BufferDays)
	}

	pending := s.state.clone()
	pending.quotes[quote.ID] = quote

	changes := []Change{{Entity: EntityQuote, Action: ActionCreate, After: quote}}
	if err = s.evaluateLocked(ctx, &pending, changes); err != nil {
		s.cleanupAttachmentLocked(ctx, attachmentKey)
		return Quote{}, err
	}
	if err = s.persistLocked(ctx, pending); err != nil {
		s.cleanupAttachmentLocked(ctx, attachmentKey)
		return Quote{}, err
	}
	s.logger.Info("quote added", "id", quote.ID, "project", quote.Project, "item", quote.Item)
	return quote, nil
}

func (s *Service) uploadAttachmentLocked(ctx context.Context, input AddQuoteInput) (string, error) {
	key := "attachments/" + uuid.NewString()
	_, err := s.attachments.Put(ctx, key, bytes.NewReader(input.Attachment), blob.PutOptions{ContentType: input.AttachmentContentType})
	if err != nil {
		return "", err
	}
	return key, nil
}

// cleanupAttachmentLocked best-effort removes an attachment uploaded by an
// action that subsequently failed, so the blob store does not accumulate
// unreferenced objects.
func (s *Service) cleanupAttachmentLocked(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if _, err := s.attachments.Delete(ctx, key); err != nil {
		s.logger.Warn("orphaned attachment cleanup failed", "key", key, "error", err)
	}
}

// StageGroup overwrites the edit-buffer snapshot for one group with typed rows.
func (s *Service) StageGroup(key GroupKey, rows []QuoteEdit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.Stage(key, rows)
}

// StageGroupRaw parses raw grid rows at the boundary and stages the result.
// Unparsable cells are dropped from their rows and reported; the remaining
// cells still participate in the next reconciliation.
func (s *Service) StageGroupRaw(key GroupKey, rows []RawEdit) []FieldError {
	var all []FieldError
	edits := make([]QuoteEdit, 0, len(rows))
	for _, raw := range rows {
		edit, errs := ParseEdit(raw)
		all = append(all, errs...)
		if edit.ID != 0 {
			edits = append(edits, edit)
		}
	}
	for _, fe := range all {
		s.logger.Warn("skipped unparsable cell", "quote", fe.ID, "field", fe.Field, "value", fe.Value)
	}
	s.StageGroup(key, edits)
	return all
}

// SaveOutcome reports the result of a reconciliation pass.
type SaveOutcome struct {
	Saved       bool
	Dirty       int
	SkippedRows []int
	Message     string
}

// SaveEdits runs the master save: merge every staged group into canonical
// state, recompute line totals, stamp dirty rows, and persist the full record
// set — or report "nothing to save" without issuing a write when no effective
// change is found. Rejected while a deletion awaits confirmation.
func (s *Service) SaveEdits(ctx context.Context) (SaveOutcome, error) {
	ctx, done := s.instrument(ctx, "save_edits")
	var err error
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.guardWriteLocked(); err != nil {
		return SaveOutcome{}, err
	}
	if s.deletion.Phase() == PhaseConfirming {
		err = ErrDeletionPending
		return SaveOutcome{}, err
	}

	pending := s.state.clone()
	res := reconcile(&pending, s.buffer, s.nowFn())
	if len(res.dirty) == 0 {
		s.logger.Info("nothing to save", "staged_groups", s.buffer.Len())
		return SaveOutcome{Saved: false, SkippedRows: res.skipped, Message: "nothing to save"}, nil
	}

	if err = s.evaluateLocked(ctx, &pending, res.changes); err != nil {
		return SaveOutcome{}, err
	}
	if err = s.persistLocked(ctx, pending); err != nil {
		return SaveOutcome{}, err
	}
	s.buffer.Clear()
	s.logger.Info("edits reconciled", "dirty", len(res.dirty), "skipped", len(res.skipped))
	return SaveOutcome{Saved: true, Dirty: len(res.dirty), SkippedRows: res.skipped, Message: fmt.Sprintf("saved %d rows", len(res.dirty))}, nil
}

// TriggerDelete scans for deletion-flagged quotes (staged flags win over
// stored ones) and arms the confirmation phase. With nothing flagged the
// protocol stays idle and ErrNothingMarked is returned as the warning.
func (s *Service) TriggerDelete() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deletion.Phase() == PhaseConfirming {
		return len(s.deletion.Pending()), ErrDeletionPending
	}
	count, armed := s.deletion.Trigger(&s.state, s.buffer)
	if !armed {
		s.logger.Warn("delete trigger with nothing marked")
		return 0, ErrNothingMarked
	}
	s.logger.Info("deletion armed", "pending", count)
	return count, nil
}

// CancelDelete discards the pending set and returns the protocol to idle.
func (s *Service) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletion.Cancel()
}

// DeletionPhase exposes the protocol state, for disabling UI actions.
func (s *Service) DeletionPhase() DeletionPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletion.Phase()
}

// PendingDeletions returns the frozen candidate IDs while confirming.
func (s *Service) PendingDeletions() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletion.Pending()
}

// DeletionReport counts the outcome of an executed cascade deletion.
type DeletionReport struct {
	Removed            int
	AttachmentsCleaned int
	AttachmentsFailed  int
}

// ConfirmDelete executes the armed deletion: every pending quote's attachment
// is deleted best-effort (failures are logged and counted, never aborting),
// the records are removed, and the reduced record set is persisted. On a
// persistence failure the protocol stays armed so the confirm can be retried.
func (s *Service) ConfirmDelete(ctx context.Context) (DeletionReport, error) {
	ctx, done := s.instrument(ctx, "confirm_delete")
	var err error
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.guardWriteLocked(); err != nil {
		return DeletionReport{}, err
	}
	if s.deletion.Phase() != PhaseConfirming {
		err = ErrNoPendingDeletion
		return DeletionReport{}, err
	}

	pending := s.state.clone()
	var report DeletionReport
	for _, id := range s.deletion.Pending() {
		quote, ok := pending.quotes[id]
		if !ok {
			continue
		}
		if quote.Attachment != "" {
			existed, derr := s.attachments.Delete(ctx, quote.Attachment)
			if derr != nil || !existed {
				report.AttachmentsFailed++
				s.logger.Warn("attachment cleanup failed", "quote", id, "key", quote.Attachment, "error", derr)
			} else {
				report.AttachmentsCleaned++
			}
		}
		delete(pending.quotes, id)
		report.Removed++
	}

	if err = s.persistLocked(ctx, pending); err != nil {
		return DeletionReport{}, err
	}
	s.deletion.take()
	s.buffer.Clear()
	s.logger.Info("deletion executed", "removed", report.Removed, "attachments_cleaned", report.AttachmentsCleaned, "attachments_failed", report.AttachmentsFailed)
	return report, nil
}

// UpsertProject creates or updates project metadata and recomputes the
// latest-arrival date of every quote, since the derivation inputs changed.
func (s *Service) UpsertProject(ctx context.Context, project Project) error {
	ctx, done := s.instrument(ctx, "upsert_project")
	var err error
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.guardWriteLocked(); err != nil {
		return err
	}
	if project.Name == "" {
		err = errors.New("project name required")
		return err
	}

	pending := s.state.clone()
	action := ActionCreate
	var before any
	if existing, ok := pending.projects[project.Name]; ok {
		action = ActionUpdate
		before = existing
	}
	project.UpdatedAt = s.nowFn()
	pending.projects[project.Name] = project
	s.rederiveLocked(&pending)

	changes := []Change{{Entity: EntityProject, Action: action, Before: before, After: project}}
	if err = s.evaluateLocked(ctx, &pending, changes); err != nil {
		return err
	}
	if err = s.persistLocked(ctx, pending); err != nil {
		return err
	}
	s.logger.Info("project upserted", "project", project.Name, "due", project.DueDate.String(), "buffer_days", project.BufferDays)
	return nil
}

// RenameProject atomically rewrites the project name on the metadata record
// and every owned quote. Renaming onto an existing project is rejected before
// any mutation; there is no merge-on-rename. Returns the number of quotes
// rewritten.
func (s *Service) RenameProject(ctx context.Context, oldName, newName string) (int, error) {
	ctx, done := s.instrument(ctx, "rename_project")
	var err error
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.guardWriteLocked(); err != nil {
		return 0, err
	}
	if newName == "" {
		err = errors.New("new project name required")
		return 0, err
	}
	project, ok := s.state.projects[oldName]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrProjectNotFound, oldName)
		return 0, err
	}
	if _, exists := s.state.projects[newName]; exists {
		err = fmt.Errorf("%w: %s", ErrProjectExists, newName)
		return 0, err
	}

	now := s.nowFn()
	pending := s.state.clone()
	delete(pending.projects, oldName)
	renamed := project
	renamed.Name = newName
	renamed.UpdatedAt = now
	pending.projects[newName] = renamed

	count := 0
	for id, q := range pending.quotes {
		if q.Project != oldName {
			continue
		}
		q.Project = newName
		q.UpdatedAt = now
		pending.quotes[id] = q
		count++
	}

	changes := []Change{{Entity: EntityProject, Action: ActionUpdate, Before: project, After: renamed}}
	if err = s.evaluateLocked(ctx, &pending, changes); err != nil {
		return 0, err
	}
	if err = s.persistLocked(ctx, pending); err != nil {
		return 0, err
	}
	s.logger.Info("project renamed", "from", oldName, "to", newName, "quotes", count)
	return count, nil
}

// RemoveProject deletes a project and cascades to every owned quote and its
// attachment. Attachment failures are counted, never fatal.
func (s *Service) RemoveProject(ctx context.Context, name string) (DeletionReport, error) {
	ctx, done := s.instrument(ctx, "remove_project")
	var err error
	defer func() { done(err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.guardWriteLocked(); err != nil {
		return DeletionReport{}, err
	}
	project, ok := s.state.projects[name]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrProjectNotFound, name)
		return DeletionReport{}, err
	}

	pending := s.state.clone()
	delete(pending.projects, name)

	var report DeletionReport
	for id, q := range pending.quotes {
		if q.Project != name {
			continue
		}
		if q.Attachment != "" {
			existed, derr := s.attachments.Delete(ctx, q.Attachment)
			if derr != nil || !existed {
				report.AttachmentsFailed++
				s.logger.Warn("attachment cleanup failed", "quote", id, "key", q.Attachment, "error", derr)
			} else {
				report.AttachmentsCleaned++
			}
		}
		delete(pending.quotes, id)
		report.Removed++
	}

	changes := []Change{{Entity: EntityProject, Action: ActionDelete, Before: project}}
	if err = s.evaluateLocked(ctx, &pending, changes); err != nil {
		return DeletionReport{}, err
	}
	if err = s.persistLocked(ctx, pending); err != nil {
		return DeletionReport{}, err
	}
	s.buffer.Clear()
	s.logger.Info("project removed", "project", name, "quotes_removed", report.Removed)
	return report, nil
}

// Dashboard returns the cached rollup, recomputing it after any successful
// mutation invalidated the cache.
func (s *Service) Dashboard() DashboardSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dashboard == nil {
		summary := summarize(&s.state, s.nowFn())
		s.dashboard = &summary
	}
	return *s.dashboard
}

// AttachmentURL returns a signed read URL for a quote's attachment.
func (s *Service) AttachmentURL(ctx context.Context, quoteID int, ttl time.Duration) (string, error) {
	ctx, done := s.instrument(ctx, "attachment_url")
	var err error
	defer func() { done(err) }()

	s.mu.Lock()
	quote, ok := s.state.quotes[quoteID]
	s.mu.Unlock()

	if !ok {
		err = fmt.Errorf("%w: %d", ErrQuoteNotFound, quoteID)
		return "", err
	}
	if quote.Attachment == "" {
		err = ErrNoAttachment
		return "", err
	}
	var url string
	url, err = s.attachments.PresignURL(ctx, quote.Attachment, blob.SignedURLOptions{Method: "GET", Expiry: ttl})
	if err != nil {
		return "", err
	}
	return url, nil
}

// OrphanAttachments lists stored attachment keys no quote references.
// Read-only maintenance report; nothing is deleted.
func (s *Service) OrphanAttachments(ctx context.Context) ([]string, error) {
	ctx, done := s.instrument(ctx, "orphan_attachments")
	var err error
	defer func() { done(err) }()

	s.mu.Lock()
	referenced := make(map[string]struct{}, len(s.state.quotes))
	for _, q := range s.state.quotes {
		if q.Attachment != "" {
			referenced[q.Attachment] = struct{}{}
		}
	}
	s.mu.Unlock()

	var infos []blob.Info
	infos, err = s.attachments.List(ctx, "attachments/")
	if err != nil {
		return nil, err
	}
	var orphans []string
	for _, info := range infos {
		if _, ok := referenced[info.Key]; !ok {
			orphans = append(orphans, info.Key)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

// Quotes returns the canonical quote set ordered by ID.
func (s *Service) Quotes() []Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.quotesSorted()
}

// Projects returns the canonical project set ordered by name.
func (s *Service) Projects() []Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.projectsSorted()
}

// Project looks up one project by name.
func (s *Service) Project(name string) (Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.projects[name]
	return p, ok
}

// Quote looks up one quote by ID.
func (s *Service) Quote(id int) (Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.state.quotes[id]
	return q, ok
}
