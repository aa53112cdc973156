package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxFileSize caps an import file at 5MB.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

var allowedExtensions = map[string]bool{".csv": true, ".txt": true}

var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ExportArchive keeps a copy of export payloads.
type ExportArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Dependencies are the collaborators a Service is built from. Only Store and
// Tenants are required.
type Dependencies struct {
	Store    PatientStore
	Tenants  TenantDirectory
	Notifier ContactNotifier
	Archive  ExportArchive
	Logger   *slog.Logger
	Now      func() time.Time
}

// Limits bound what a single import may cost.
type Limits struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service is the entry point for transports: it checks files and tenants,
// limits concurrent imports, and runs imports and exports.
type Service struct {
	tenants     TenantDirectory
	importer    *Importer
	exporter    *Exporter
	limiter     *ImportLimiter
	archive     ExportArchive
	maxFileSize int64
	logger      *slog.Logger
	now         func() time.Time
}

// NewService wires a Service.
func NewService(deps Dependencies, limits Limits) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	maxSize := limits.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	opts := []ImporterOption{WithLogger(logger), WithClock(now)}
	if deps.Notifier != nil {
		opts = append(opts, WithNotifier(deps.Notifier))
	}

	return &Service{
		tenants:     deps.Tenants,
		importer:    NewImporter(deps.Store, opts...),
		exporter:    NewExporter(deps.Store),
		limiter:     NewImportLimiter(limits.MaxConcurrent, limits.MaxWait),
		archive:     deps.Archive,
		maxFileSize: maxSize,
		logger:      logger,
		now:         now,
	}
}

// CheckFile applies the file-level rules: known extension, non-empty,
// within the size cap, and text content.
func (s *Service) CheckFile(name string, data []byte) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return &FileError{Name: name, Err: ErrUnsupportedExtension}
	}
	if len(data) == 0 {
		return &FileError{Name: name, Err: ErrEmptyFile}
	}
	if int64(len(data)) > s.maxFileSize {
		return &FileError{Name: name, Err: fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), s.maxFileSize)}
	}
	if !isText(mimetype.Detect(data)) {
		return &FileError{Name: name, Err: ErrNotText}
	}
	return nil
}

// isText walks the detected type's ancestry looking for text/plain; CSV and
// TSV both descend from it.
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// ValidateTenantID checks the identifier's shape: letters, digits, dashes
// and underscores.
func ValidateTenantID(tenantID string) error {
	if !tenantIDPattern.MatchString(tenantID) {
		return fmt.Errorf("%w: %q", ErrInvalidTenantID, tenantID)
	}
	return nil
}

// ResolveTenant validates the identifier and looks it up.
func (s *Service) ResolveTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	if err := ValidateTenantID(tenantID); err != nil {
		return nil, err
	}
	tenant, err := s.tenants.Resolve(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve tenant %s: %w", tenantID, err)
	}
	return tenant, nil
}

// Import checks the file and tenant, waits for an import slot, and runs
// the import. File-level problems come back as errors; everything that
// happens to individual rows is in the report.
func (s *Service) Import(ctx context.Context, tenantID, fileName string, data []byte, opts Options) (*ImportReport, error) {
	start := time.Now()
	report, err := s.runImport(ctx, tenantID, fileName, data, opts)
	if err != nil && IsFileLevel(err) {
		recordRejectedImport(opts.DryRun, time.Since(start))
		s.logger.Info("import rejected", "tenant", tenantID, "file", fileName, "error", err)
	}
	return report, err
}

func (s *Service) runImport(ctx context.Context, tenantID, fileName string, data []byte, opts Options) (*ImportReport, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := s.CheckFile(fileName, data); err != nil {
		return nil, err
	}
	if _, err := s.ResolveTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	report, err := s.importer.Import(ctx, tenantID, data, opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, &FileError{Name: fileName, Err: err}
		}
		return nil, err
	}
	return report, nil
}

// ExportFile is a rendered export ready to send.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Export renders the tenant's roster as csv (default) or xlsx. CSV exports
// are archived when an archive is configured; archive failures are logged.
func (s *Service) Export(ctx context.Context, tenantID, format string) (*ExportFile, error) {
	if format == "" {
		format = FormatCSV
	}
	format = strings.ToLower(format)
	if format != FormatCSV && format != FormatXLSX {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExportFormat, format)
	}
	if _, err := s.ResolveTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	stamp := s.now().UTC()
	name := fmt.Sprintf("pacientes_%s_%s.%s", tenantID, stamp.Format("20060102"), format)

	if format == FormatXLSX {
		data, err := s.exporter.ExportXLSX(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Name:        name,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	}

	data, err := s.exporter.ExportCSV(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	s.archiveExport(ctx, tenantID, stamp, data)
	return &ExportFile{Name: name, ContentType: "text/csv; charset=utf-8", Data: data}, nil
}

func (s *Service) archiveExport(ctx context.Context, tenantID string, stamp time.Time, data []byte) {
	if s.archive == nil {
		return
	}
	key := fmt.Sprintf("exports/%s/%s.csv", tenantID, stamp.Format("20060102T150405Z"))
	if err := s.archive.Put(ctx, key, data, "text/csv"); err != nil {
		s.logger.Warn("export archive failed", "tenant", tenantID, "key", key, "error", err)
		return
	}
	s.logger.Debug("export archived", "tenant", tenantID, "key", key)
}

// Template returns the header-only import template.
func (s *Service) Template() []byte {
	return Template()
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends. Used
// during shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
