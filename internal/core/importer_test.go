package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/clinicroster/internal/logging"
)

const rosterCSV = `nombre,email,fecha de nacimiento,sexo,dni
Ana Pérez,ana@example.com,13/05/1990,F,111
Bruno Díaz,bruno@example.com,1985-02-01,M,222
Carla Ruiz,carla@example.com,05/03/1990,,333
`

func newTestImporter(store PatientStore, opts ...ImporterOption) *Importer {
	base := []ImporterOption{WithLogger(logging.Discard()), WithClock(fixedNow)}
	return NewImporter(store, append(base, opts...)...)
}

func assertAccounting(t *testing.T, r *ImportReport) {
	t.Helper()
	assert.Equal(t, r.TotalRows, r.Succeeded+r.Failed+r.DuplicatesSkipped,
		"succeeded+failed+duplicates must equal total")
	assert.Len(t, r.Errors, r.Failed)
}

func TestImporter_MixedFile(t *testing.T) {
	store := newFakeStore("t1")
	im := newTestImporter(store)

	data := "name,email\n" +
		"Ana Pérez,ana@example.com\n" +
		",nobody@example.com\n" +
		"Ana Again,ANA@example.com\n"

	report, err := im.Import(context.Background(), "t1", []byte(data), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.DuplicatesSkipped)
	assert.Len(t, report.CreatedIDs, 1)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].LineNumber)
	assert.Contains(t, report.Errors[0].Reason, "name")
	v, _ := report.Errors[0].RawData.value("email")
	assert.Equal(t, "nobody@example.com", v)
	assertAccounting(t, report)
	assert.NotEmpty(t, report.Message)
}

func TestImporter_Idempotent(t *testing.T) {
	store := newFakeStore("t1")
	im := newTestImporter(store)
	ctx := context.Background()
	opts := Options{DuplicateField: MatchEmail, DuplicateStrategy: DuplicateSkip}

	first, err := im.Import(ctx, "t1", []byte(rosterCSV), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Succeeded)

	second, err := im.Import(ctx, "t1", []byte(rosterCSV), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Succeeded)
	assert.Equal(t, 3, second.DuplicatesSkipped)
	assert.Empty(t, second.CreatedIDs)
	assert.Equal(t, 3, store.count("t1"))
}

func TestImporter_TenantsAreIsolated(t *testing.T) {
	store := newFakeStore("t1", "t2")
	im := newTestImporter(store)
	ctx := context.Background()

	_, err := im.Import(ctx, "t1", []byte(rosterCSV), Options{})
	require.NoError(t, err)
	report, err := im.Import(ctx, "t2", []byte(rosterCSV), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.DuplicatesSkipped)
}

func TestImporter_DryRunParity(t *testing.T) {
	data := rosterCSV + ",sin-nombre@example.com,,,\nAna Copia,ana@example.com,,,\n"
	ctx := context.Background()

	dryStore := newFakeStore("t1")
	dry, err := newTestImporter(dryStore).Import(ctx, "t1", []byte(data), Options{DryRun: true})
	require.NoError(t, err)

	committedStore := newFakeStore("t1")
	committed, err := newTestImporter(committedStore).Import(ctx, "t1", []byte(data), Options{})
	require.NoError(t, err)

	assert.Equal(t, committed.Succeeded, dry.Succeeded)
	assert.Equal(t, committed.Failed, dry.Failed)
	assert.Equal(t, committed.DuplicatesSkipped, dry.DuplicatesSkipped)
	assert.Empty(t, dry.CreatedIDs)
	assert.Len(t, committed.CreatedIDs, committed.Succeeded)
	assert.True(t, dry.DryRun)
	assert.Zero(t, dryStore.count("t1"))
	assertAccounting(t, dry)
	assertAccounting(t, committed)
}

func TestImporter_DryRunCountsInFileDuplicates(t *testing.T) {
	data := "name,email,dni\nAna,ana@x.com,1\nAna B,ANA@x.com,2\nAna C,c@x.com,1\n"

	byEmail, err := newTestImporter(newFakeStore("t1")).Import(context.Background(), "t1", []byte(data), Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 2, byEmail.Succeeded)
	assert.Equal(t, 1, byEmail.DuplicatesSkipped)

	byBoth, err := newTestImporter(newFakeStore("t1")).Import(context.Background(), "t1", []byte(data),
		Options{DryRun: true, DuplicateField: MatchBoth})
	require.NoError(t, err)
	assert.Equal(t, 1, byBoth.Succeeded)
	assert.Equal(t, 2, byBoth.DuplicatesSkipped)
}

func TestImporter_DocumentIDMatching(t *testing.T) {
	store := newFakeStore("t1")
	im := newTestImporter(store)
	ctx := context.Background()

	_, err := im.Import(ctx, "t1", []byte("name,dni\nAna,111\n"), Options{})
	require.NoError(t, err)

	byEmail, err := im.Import(ctx, "t1", []byte("name,dni\nAna,111\n"), Options{DuplicateField: MatchEmail})
	require.NoError(t, err)
	assert.Equal(t, 1, byEmail.Succeeded, "no email means no email match")

	byDoc, err := im.Import(ctx, "t1", []byte("name,dni\nAna,111\n"), Options{DuplicateField: MatchDocumentID})
	require.NoError(t, err)
	assert.Equal(t, 1, byDoc.DuplicatesSkipped)
}

func TestImporter_UpdateStrategyLeavesExisting(t *testing.T) {
	store := newFakeStore("t1")
	im := newTestImporter(store)
	ctx := context.Background()

	_, err := im.Import(ctx, "t1", []byte("name,email\nAna,ana@x.com\n"), Options{})
	require.NoError(t, err)

	report, err := im.Import(ctx, "t1", []byte("name,email\nAna Renamed,ana@x.com\n"),
		Options{DuplicateStrategy: DuplicateUpdate})
	require.NoError(t, err)
	assert.Equal(t, 1, report.DuplicatesSkipped)

	all, _ := store.ListAll(ctx, "t1")
	require.Len(t, all, 1)
	assert.Equal(t, "Ana", all[0].Name)
}

func TestImporter_StoreErrorsBecomeRowErrors(t *testing.T) {
	store := newFakeStore("t1")
	store.createErr = errors.New("disk full")

	report, err := newTestImporter(store).Import(context.Background(), "t1", []byte(rosterCSV), Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Failed)
	assert.Zero(t, report.Succeeded)
	assert.Contains(t, report.Errors[0].Reason, "disk full")
	assertAccounting(t, report)
}

func TestImporter_LookupErrorsBecomeRowErrors(t *testing.T) {
	store := newFakeStore("t1")
	store.findErr = errors.New("connection reset")

	report, err := newTestImporter(store).Import(context.Background(), "t1", []byte(rosterCSV), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Failed)
	assert.Contains(t, report.Errors[0].Reason, "connection reset")
}

func TestImporter_NotifierFailuresAreIgnored(t *testing.T) {
	tests := []struct {
		name     string
		notifier *recordingNotifier
	}{
		{"error", &recordingNotifier{err: errors.New("broker down")}},
		{"panic", &recordingNotifier{panics: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore("t1")
			im := newTestImporter(store, WithNotifier(tt.notifier))

			report, err := im.Import(context.Background(), "t1", []byte(rosterCSV), Options{})
			require.NoError(t, err)
			assert.Equal(t, 3, report.Succeeded)
			assert.Empty(t, report.Errors)
			assert.Equal(t, report.CreatedIDs, tt.notifier.seen)
		})
	}
}

func TestImporter_NotifierNotCalledOnDryRun(t *testing.T) {
	n := &recordingNotifier{}
	im := newTestImporter(newFakeStore("t1"), WithNotifier(n))

	_, err := im.Import(context.Background(), "t1", []byte(rosterCSV), Options{DryRun: true})
	require.NoError(t, err)
	assert.Empty(t, n.seen)
}

func TestImporter_CancelledContextStillFinishes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestImporter(newFakeStore("t1")).Import(ctx, "t1", []byte(rosterCSV), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Succeeded)
}

func TestImporter_SemicolonWindows1252(t *testing.T) {
	data := []byte("Nombre;Apellido;Correo;Tel\xe9fono\nJos\xe9;Mu\xf1oz;jose@x.com;555\n")

	store := newFakeStore("t1")
	report, err := newTestImporter(store).Import(context.Background(), "t1", data, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, report.Succeeded)

	all, _ := store.ListAll(context.Background(), "t1")
	assert.Equal(t, "José Muñoz", all[0].Name)
	assert.Equal(t, "555", all[0].Phone)
}

func TestImporter_FileLevelErrors(t *testing.T) {
	im := newTestImporter(newFakeStore("t1"))

	_, err := im.Import(context.Background(), "t1", []byte("name,email\n"), Options{})
	assert.ErrorIs(t, err, ErrNoDataRows)
	assert.True(t, IsFileLevel(err))

	_, err = im.Import(context.Background(), "t1", []byte(rosterCSV), Options{DuplicateField: "phone"})
	var oe *OptionError
	assert.ErrorAs(t, err, &oe)
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("", "", true)
	require.NoError(t, err)
	assert.Equal(t, Options{DuplicateStrategy: DuplicateSkip, DuplicateField: MatchEmail, DryRun: true}, opts)

	opts, err = ParseOptions("update", "both", false)
	require.NoError(t, err)
	assert.Equal(t, MatchBoth, opts.DuplicateField)

	_, err = ParseOptions("merge", "", false)
	assert.True(t, strings.Contains(err.Error(), "duplicateStrategy"))
}

func TestImportReportSummary(t *testing.T) {
	sum := (&ImportReport{TotalRows: 2, Succeeded: 2, Elapsed: 1500 * time.Millisecond}).Summary()
	assert.True(t, sum.Success)
	assert.Equal(t, int64(1500), sum.ElapsedMillis)
	assert.NotNil(t, sum.Errors)
	assert.NotNil(t, sum.CreatedIDs)

	b, err := json.Marshal(sum)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, float64(1500), raw["tiempoProcesamiento"])
	assert.Equal(t, []any{}, raw["detallesErrores"])
	assert.Equal(t, []any{}, raw["pacientesCreados"])
}
