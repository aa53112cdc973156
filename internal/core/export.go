package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportHeader is the column order of every export and of the import
// template. Each name resolves back to its field on import.
var ExportHeader = []string{
	"name", "email", "phone", "birthDate", "documento", "clientNumber",
	"address", "city", "province", "country", "gender",
	"preExistingConditions", "notes",
}

// exportDateLayout is also accepted by NormalizeDate.
const exportDateLayout = "2006-01-02"

// exportRow flattens a patient in ExportHeader order. Nulls become "".
func exportRow(p *Patient) []string {
	var birth string
	if p.BirthDate != nil {
		birth = p.BirthDate.Format(exportDateLayout)
	}
	return []string{
		p.Name, p.Email, p.Phone, birth, p.DocumentID, p.ClientNumber,
		p.Address, p.City, p.Province, p.Country, p.Gender,
		p.PreExistingConditions, p.Notes,
	}
}

// Exporter serializes a tenant's roster.
type Exporter struct {
	store PatientStore
}

// NewExporter creates an Exporter reading from store.
func NewExporter(store PatientStore) *Exporter {
	return &Exporter{store: store}
}

func (e *Exporter) load(ctx context.Context, tenantID string) ([]*Patient, error) {
	patients, err := e.store.ListAll(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	if len(patients) == 0 {
		return nil, ErrNothingToExport
	}
	return patients, nil
}

// ExportCSV returns the tenant's patients as CSV with ExportHeader.
// Returns ErrNothingToExport for an empty roster.
func (e *Exporter) ExportCSV(ctx context.Context, tenantID string) ([]byte, error) {
	patients, err := e.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	data, err := EncodeCSV(patients)
	if err != nil {
		return nil, err
	}
	exportedRecords.WithLabelValues("csv").Add(float64(len(patients)))
	return data, nil
}

// EncodeCSV writes patients under ExportHeader. Cells containing the
// delimiter, a quote or a line break are quoted with doubled inner quotes.
func EncodeCSV(patients []*Patient) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ExportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, p := range patients {
		if err := w.Write(exportRow(p)); err != nil {
			return nil, fmt.Errorf("write patient %s: %w", p.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// exportSheet is the worksheet name used for XLSX exports.
const exportSheet = "Pacientes"

// ExportXLSX returns the same table as ExportCSV as an Excel workbook.
func (e *Exporter) ExportXLSX(ctx context.Context, tenantID string) ([]byte, error) {
	patients, err := e.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, p := range patients {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := exportRow(p)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write patient %s: %w", p.ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode xlsx: %w", err)
	}
	exportedRecords.WithLabelValues("xlsx").Add(float64(len(patients)))
	return buf.Bytes(), nil
}

// Template returns a header-only CSV for clinics preparing an import.
func Template() []byte {
	data, _ := EncodeCSV(nil)
	return data
}
