package core

// importer.go drives one roster import from raw bytes to an ImportReport.
//
// Rows are handled strictly in file order, one at a time, so the duplicate
// check for a row sees every patient created by the rows above it. A row
// never aborts the run: it ends up created, skipped as a duplicate, or in
// the report's error list. Only file-level problems (nothing parseable)
// return an error instead of a report.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Importer is the import orchestrator.
type Importer struct {
	store      PatientStore
	duplicates *DuplicateResolver
	validator  *RowValidator
	notifier   ContactNotifier
	logger     *slog.Logger
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithNotifier sets the post-create contact sync hook.
func WithNotifier(n ContactNotifier) ImporterOption {
	return func(im *Importer) { im.notifier = n }
}

// WithLogger sets the diagnostics sink.
func WithLogger(l *slog.Logger) ImporterOption {
	return func(im *Importer) { im.logger = l }
}

// WithClock overrides the clock used for birth date checks.
func WithClock(now func() time.Time) ImporterOption {
	return func(im *Importer) { im.validator = NewRowValidator(now) }
}

// NewImporter creates an Importer writing to store.
func NewImporter(store PatientStore, opts ...ImporterOption) *Importer {
	im := &Importer{
		store:      store,
		duplicates: NewDuplicateResolver(store),
		validator:  NewRowValidator(nil),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import parses data and processes every row for tenantID.
//
// Once row processing starts it runs to completion even if ctx is
// cancelled; a half-finished run would leave the caller without a report of
// which rows were written.
func (im *Importer) Import(ctx context.Context, tenantID string, data []byte, opts Options) (*ImportReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	start := time.Now()

	text := Decode(data)
	delim := DetectDelimiter(text)
	rows, err := ParseRows(text, delim)
	if err != nil {
		return nil, err
	}

	logger := im.logger.With("tenant", tenantID, "dry_run", opts.DryRun).With(logAttrs(ctx)...)
	logger.Debug("import parsed", "rows", len(rows), "delimiter", string(delim))

	ctx = context.WithoutCancel(ctx)
	report := &ImportReport{
		TotalRows:  len(rows),
		DryRun:     opts.DryRun,
		CreatedIDs: []string{},
		Errors:     []ImportError{},
	}

	run := &importRun{tenantID: tenantID, opts: opts, report: report, logger: logger}
	if opts.DryRun {
		run.pending = make(map[matchKey]struct{})
	}
	for _, row := range rows {
		im.processRow(ctx, run, row)
	}

	report.Elapsed = time.Since(start)
	report.Message = summaryMessage(report)
	recordImportMetrics(report)

	logger.Info("import finished",
		"total", report.TotalRows,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"duplicates", report.DuplicatesSkipped,
		"elapsed", report.Elapsed,
	)
	return report, nil
}

// importRun is the state of one Import call.
type importRun struct {
	tenantID string
	opts     Options
	report   *ImportReport
	logger   *slog.Logger
	// pending holds the keys of rows a dry run accepted, standing in for the
	// patients a real run would have created.
	pending map[matchKey]struct{}
}

func (run *importRun) seenInDryRun(rec CanonicalRecord) bool {
	for _, k := range duplicateKeys(rec, run.opts.DuplicateField) {
		if _, ok := run.pending[k]; ok {
			return true
		}
	}
	return false
}

func (im *Importer) processRow(ctx context.Context, run *importRun, row RawRow) {
	logger, tenantID, opts, report := run.logger, run.tenantID, run.opts, run.report
	fail := func(reason string) {
		report.Failed++
		report.Errors = append(report.Errors, ImportError{
			LineNumber: row.Line,
			RawData:    row,
			Reason:     reason,
		})
	}

	rec := ResolveColumns(row)

	if verr := im.validator.Validate(rec); verr != nil {
		fail(verr.Error())
		return
	}

	dup, err := im.duplicates.IsDuplicate(ctx, tenantID, rec, opts.DuplicateField)
	if err != nil {
		logger.Warn("duplicate lookup failed", "line", row.Line, "error", err)
		fail(err.Error())
		return
	}
	if !dup && opts.DryRun {
		dup = run.seenInDryRun(rec)
	}
	if dup {
		if opts.DuplicateStrategy == DuplicateUpdate {
			logger.Debug("duplicate left unchanged; update is not supported", "line", row.Line)
		}
		report.DuplicatesSkipped++
		return
	}

	if opts.DryRun {
		for _, k := range duplicateKeys(rec, MatchBoth) {
			run.pending[k] = struct{}{}
		}
		report.Succeeded++
		return
	}

	p := NewPatient(rec)
	id, err := im.store.Create(ctx, p, tenantID)
	if err != nil {
		logger.Warn("create patient failed", "line", row.Line, "error", err)
		fail(fmt.Sprintf("could not save patient: %v", err))
		return
	}
	p.ID = id
	p.TenantID = tenantID
	report.CreatedIDs = append(report.CreatedIDs, id)
	report.Succeeded++

	im.notify(ctx, logger, p, tenantID)
}

// notify runs the contact sync hook. Its failures never touch the report.
func (im *Importer) notify(ctx context.Context, logger *slog.Logger, p *Patient, tenantID string) {
	if im.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("contact sync panicked", "patient_id", p.ID, "panic", r)
		}
	}()
	if err := im.notifier.Notify(ctx, p, tenantID); err != nil {
		logger.Warn("contact sync failed", "patient_id", p.ID, "error", err)
	}
}

func summaryMessage(r *ImportReport) string {
	if r.DryRun {
		return fmt.Sprintf("Validación completada: %d de %d filas son válidas, %d con errores y %d duplicadas. No se guardó ningún paciente.",
			r.Succeeded, r.TotalRows, r.Failed, r.DuplicatesSkipped)
	}
	return fmt.Sprintf("Importación completada: %d pacientes creados de %d filas, %d con errores y %d duplicados omitidos.",
		r.Succeeded, r.TotalRows, r.Failed, r.DuplicatesSkipped)
}
