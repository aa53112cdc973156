package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestEncodeCSV_Quoting(t *testing.T) {
	birth := time.Date(1990, 5, 13, 0, 0, 0, 0, time.UTC)
	patients := []*Patient{{
		Name:      `Ana "Anita" Pérez`,
		Email:     "ana@x.com",
		BirthDate: &birth,
		Notes:     "alergia, asma\nsegunda línea",
	}}

	data, err := EncodeCSV(patients)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"Ana ""Anita"" Pérez"`)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ExportHeader, records[0])
	assert.Equal(t, `Ana "Anita" Pérez`, records[1][0])
	assert.Equal(t, "1990-05-13", records[1][3])
	assert.Equal(t, "alergia, asma\nsegunda línea", records[1][12])
	assert.Empty(t, records[1][2], "missing phone exports as empty")
}

func TestTemplate(t *testing.T) {
	records, err := csv.NewReader(bytes.NewReader(Template())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{ExportHeader}, records)
}

func TestExporter_EmptyRoster(t *testing.T) {
	ex := NewExporter(newFakeStore("t1"))

	_, err := ex.ExportCSV(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrNothingToExport)

	_, err = ex.ExportXLSX(context.Background(), "t1")
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestExporter_RoundTripIsAllDuplicates(t *testing.T) {
	store := newFakeStore("t1")
	im := newTestImporter(store)
	ctx := context.Background()

	first, err := im.Import(ctx, "t1", []byte(rosterCSV), Options{})
	require.NoError(t, err)
	require.Equal(t, 3, first.Succeeded)

	exported, err := NewExporter(store).ExportCSV(ctx, "t1")
	require.NoError(t, err)

	again, err := im.Import(ctx, "t1", exported, Options{DuplicateStrategy: DuplicateSkip, DuplicateField: MatchEmail})
	require.NoError(t, err)
	assert.Equal(t, 3, again.TotalRows)
	assert.Equal(t, 3, again.DuplicatesSkipped)
	assert.Zero(t, again.Succeeded)
	assert.Zero(t, again.Failed)
}

func TestExporter_ReimportIntoEmptyTenantPreservesFields(t *testing.T) {
	store := newFakeStore("src", "dst")
	im := newTestImporter(store)
	ctx := context.Background()

	_, err := im.Import(ctx, "src", []byte(rosterCSV), Options{})
	require.NoError(t, err)
	exported, err := NewExporter(store).ExportCSV(ctx, "src")
	require.NoError(t, err)

	report, err := im.Import(ctx, "dst", exported, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, report.Succeeded)

	src, _ := store.ListAll(ctx, "src")
	dst, _ := store.ListAll(ctx, "dst")
	for i := range src {
		assert.Equal(t, src[i].Name, dst[i].Name)
		assert.Equal(t, src[i].Email, dst[i].Email)
		assert.Equal(t, src[i].DocumentID, dst[i].DocumentID)
		assert.Equal(t, src[i].Gender, dst[i].Gender)
		assert.Equal(t, src[i].BirthDate, dst[i].BirthDate)
	}
}

func TestExporter_XLSX(t *testing.T) {
	store := newFakeStore("t1")
	_, err := newTestImporter(store).Import(context.Background(), "t1", []byte(rosterCSV), Options{})
	require.NoError(t, err)

	data, err := NewExporter(store).ExportXLSX(context.Background(), "t1")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, "Ana Pérez", rows[1][0])
	assert.Equal(t, "ana@example.com", rows[1][1])
}
