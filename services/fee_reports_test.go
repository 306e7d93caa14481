package services

import (
	"bytes"
	"context"
	"schoolfees_go/models"
	"schoolfees_go/services/ledger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedLedgers(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.GenerateLedger(ctx, key(1), ledger.GenerateOptions{TransportTier: models.TransportClose, IncludeRegistrationFee: true}, 9)
	require.NoError(t, err)
	_, err = f.svc.GenerateLedger(ctx, key(2), ledger.GenerateOptions{HasUniform: true}, 9)
	require.NoError(t, err)
	_, err = f.svc.RecordInstallmentPayment(ctx, key(1), models.TrackTuition, 0, dec("133.33"), ledger.Payment{})
	require.NoError(t, err)
	_, err = f.svc.RecordLumpSumPayment(ctx, key(2), models.ComponentUniform, ledger.Payment{})
	require.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	seedLedgers(t, f)

	d, err := f.svc.Dashboard(context.Background(), 1, year)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Students)
	assert.Equal(t, 2, d.WithLedger)
	assert.Equal(t, 1, d.WithoutLedger)
	// 1200 + 200 + 360 for the first student, 900 + 150 for the second.
	assert.True(t, dec("2810").Equal(d.Totals.GrandTotal), "got %s", d.Totals.GrandTotal)
	assert.True(t, dec("283.33").Equal(d.Paid.GrandTotal), "got %s", d.Paid.GrandTotal)
	assert.True(t, dec("2526.67").Equal(d.Remaining.GrandTotal))
	assert.True(t, dec("10.08").Equal(d.CollectionRate), "got %s", d.CollectionRate)
	assert.Equal(t, 2, d.StatusCounts[models.StatusPartial])
	require.Contains(t, d.ByCategory, models.CategorySecondaire)
	assert.Equal(t, 1, d.ByCategory[models.CategorySecondaire].Ledgers)
}

func TestMonthlyStatsFollowAcademicOrder(t *testing.T) {
	f := newFixture(t)
	seedLedgers(t, f)
	f.now = time.Date(2024, 10, 25, 0, 0, 0, 0, time.UTC)

	stats, err := f.svc.MonthlyStats(context.Background(), 1, year)
	require.NoError(t, err)
	require.Len(t, stats, 9)
	assert.Equal(t, 9, stats[0].Month)
	assert.Equal(t, "Septembre", stats[0].MonthName)
	assert.Equal(t, 5, stats[8].Month)

	sept := stats[0]
	// 133.33 + 40 transport + 100 for the primary student.
	assert.True(t, dec("273.33").Equal(sept.Expected), "got %s", sept.Expected)
	assert.True(t, dec("133.33").Equal(sept.Collected))
	assert.Equal(t, 1, sept.PaidCount)
	assert.Equal(t, 2, sept.OverdueCount)
	assert.Equal(t, 3, stats[1].OverdueCount)
}

func TestReportsWithoutRedis(t *testing.T) {
	f := newFixture(t)
	f.svc.SetReportCache(NewReportCache(nil, time.Minute))
	seedLedgers(t, f)

	first, err := f.svc.Dashboard(context.Background(), 1, year)
	require.NoError(t, err)
	_, err = f.svc.RecordInstallmentPayment(context.Background(), key(2), models.TrackTuition, 0, dec("100"), ledger.Payment{})
	require.NoError(t, err)
	second, err := f.svc.Dashboard(context.Background(), 1, year)
	require.NoError(t, err)
	assert.True(t, second.Paid.GrandTotal.GreaterThan(first.Paid.GrandTotal))
}

type fakeUploader struct {
	uploaded map[string][]byte
	err      error
}

func (u *fakeUploader) ExportKey(schoolID uint, year, fileName string, _ time.Time) string {
	return "exports/" + year + "/" + fileName
}

func (u *fakeUploader) UploadWorkbook(_ context.Context, key string, data []byte) error {
	if u.err != nil {
		return u.err
	}
	u.uploaded[key] = data
	return nil
}

func (u *fakeUploader) DownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://example.test/" + key, nil
}

type recordList struct {
	records []models.ExportRecord
}

func (r *recordList) SaveExportRecord(_ context.Context, rec *models.ExportRecord) error {
	r.records = append(r.records, *rec)
	return nil
}

func TestExportWorkbook(t *testing.T) {
	f := newFixture(t)
	seedLedgers(t, f)
	exp := NewFeeExportService(f.svc)

	res, err := exp.Export(context.Background(), 1, year, ExportFilter{}, true, 9)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Ledgers)
	assert.Nil(t, res.Record, "no uploader configured")

	wb, err := excelize.OpenReader(bytes.NewReader(res.Data))
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(ledgerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Élève", rows[0][0])
	assert.Equal(t, "Amine Ben Salah", rows[1][0])
	inst, err := wb.GetRows(installmentSheet)
	require.NoError(t, err)
	assert.Len(t, inst, 1+9+9+9)
}

func TestExportUploadsAndRecords(t *testing.T) {
	f := newFixture(t)
	seedLedgers(t, f)
	up := &fakeUploader{uploaded: map[string][]byte{}}
	recs := &recordList{}
	exp := NewFeeExportService(f.svc)
	exp.SetUploader(up, recs)

	res, err := exp.Export(context.Background(), 1, year, ExportFilter{Status: models.StatusPartial}, true, 9)
	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.Equal(t, "completed", res.Record.Status)
	assert.Contains(t, up.uploaded, res.Record.S3Key)
	assert.Equal(t, "https://example.test/"+res.Record.S3Key, res.DownloadURL)
	require.Len(t, recs.records, 1)
	assert.JSONEq(t, `{"status":"partial"}`, string(recs.records[0].Filters))

	up.err = assert.AnError
	_, err = exp.Export(context.Background(), 1, year, ExportFilter{}, true, 9)
	assert.Error(t, err)
	require.Len(t, recs.records, 2)
	assert.Equal(t, "failed", recs.records[1].Status)
}

func TestOverdueSweep(t *testing.T) {
	f := newFixture(t)
	seedLedgers(t, f)
	f.now = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	sweeper := NewOverdueSweeper(f.svc, f.pricing)
	changed, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	stored, err := f.ledgers.Get(context.Background(), 1, 1, year)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, stored.OverallStatus)

	assert.Error(t, sweeper.Start("not a cron spec"))
}
