package services

import (
	"context"
	"encoding/json"
	"fmt"
	"schoolfees_go/models"
	"schoolfees_go/storage"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	ledgerSheet      = "Ledgers"
	installmentSheet = "Installments"
)

// WorkbookUploader pushes exported workbooks to object storage.
type WorkbookUploader interface {
	ExportKey(schoolID uint, year, fileName string, at time.Time) string
	UploadWorkbook(ctx context.Context, key string, data []byte) error
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ExportRecorder persists the trail of uploaded exports.
type ExportRecorder interface {
	SaveExportRecord(ctx context.Context, rec *models.ExportRecord) error
}

// ExportFilter narrows the ledgers written to a workbook.
type ExportFilter struct {
	Status models.Status `json:"status,omitempty"`
	Grade  string        `json:"grade,omitempty"`
}

// ExportResult is a generated workbook and, when uploaded, where it went.
type ExportResult struct {
	FileName    string               `json:"file_name"`
	Data        []byte               `json:"-"`
	Ledgers     int                  `json:"ledgers"`
	Record      *models.ExportRecord `json:"record,omitempty"`
	DownloadURL string               `json:"download_url,omitempty"`
}

// FeeExportService writes ledgers to XLSX workbooks.
type FeeExportService struct {
	fees     *FeeService
	uploader WorkbookUploader
	records  ExportRecorder
	linkTTL  time.Duration
}

func NewFeeExportService(fees *FeeService) *FeeExportService {
	return &FeeExportService{fees: fees, linkTTL: 15 * time.Minute}
}

// SetUploader enables uploads. Either argument may be nil.
func (e *FeeExportService) SetUploader(u WorkbookUploader, r ExportRecorder) {
	e.uploader = u
	e.records = r
}

// CanUpload reports whether an uploader is configured.
func (e *FeeExportService) CanUpload() bool {
	return e.uploader != nil
}

// Export builds the workbook of a school year. With upload set and an
// uploader configured, the file is also stored and an ExportRecord kept.
func (e *FeeExportService) Export(ctx context.Context, schoolID uint, year string, f ExportFilter, upload bool, userID uint) (*ExportResult, error) {
	ledgers, err := e.fees.ListLedgers(ctx, storage.LedgerQuery{
		SchoolID:     schoolID,
		AcademicYear: year,
		Status:       f.Status,
		Grade:        f.Grade,
	})
	if err != nil {
		return nil, err
	}

	wb, err := BuildLedgerWorkbook(ledgers)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}

	now := e.fees.Now().UTC()
	res := &ExportResult{
		FileName: fmt.Sprintf("frais-%d-%s-%s.xlsx", schoolID, year, now.Format("20060102-150405")),
		Data:     buf.Bytes(),
		Ledgers:  len(ledgers),
	}
	if !upload || e.uploader == nil {
		return res, nil
	}

	filters, _ := json.Marshal(f)
	rec := &models.ExportRecord{
		SchoolID:     schoolID,
		AcademicYear: year,
		FileName:     res.FileName,
		S3Key:        e.uploader.ExportKey(schoolID, year, res.FileName, now),
		RecordCount:  len(ledgers),
		FileSize:     int64(len(res.Data)),
		Filters:      models.JSON(filters),
		Status:       "completed",
		RequestedBy:  userID,
	}
	log := logrus.WithFields(logrus.Fields{
		"school_id":     schoolID,
		"academic_year": year,
		"s3_key":        rec.S3Key,
		"ledgers":       len(ledgers),
	})

	uploadErr := e.uploader.UploadWorkbook(ctx, rec.S3Key, res.Data)
	if uploadErr != nil {
		rec.Status = "failed"
		rec.Error = uploadErr.Error()
	}
	if e.records != nil {
		if err := e.records.SaveExportRecord(ctx, rec); err != nil {
			log.WithError(err).Error("Failed to record fee export")
		}
	}
	res.Record = rec
	if uploadErr != nil {
		log.WithError(uploadErr).Error("Fee export upload failed")
		return nil, uploadErr
	}

	if url, err := e.uploader.DownloadURL(ctx, rec.S3Key, e.linkTTL); err == nil {
		res.DownloadURL = url
	} else {
		log.WithError(err).Warn("Could not presign fee export")
	}
	log.Info("Fee export uploaded")
	return res, nil
}

var ledgerHeaders = []string{
	"Élève", "Niveau", "Catégorie", "Type de paiement", "Statut",
	"Scolarité", "Inscription", "Uniforme", "Transport", "Total",
	"Payé", "Reste", "Remise",
}

var installmentHeaders = []string{
	"Élève", "Composante", "Mois", "Échéance", "Montant", "Payé", "Statut", "Reçu",
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func toFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

type exportTrack struct {
	name     models.Track
	schedule []models.Installment
}

// BuildLedgerWorkbook lays out one summary row per ledger and one row per
// installment.
func BuildLedgerWorkbook(ledgers []models.StudentFeeLedger) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}
	if _, err := f.NewSheet(installmentSheet); err != nil {
		return nil, errors.Wrap(err, "add installment sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "header style")
	}
	if err := writeHeader(f, ledgerSheet, ledgerHeaders, bold); err != nil {
		return nil, errors.Wrap(err, "ledger header")
	}
	if err := writeHeader(f, installmentSheet, installmentHeaders, bold); err != nil {
		return nil, errors.Wrap(err, "installment header")
	}

	instRow := 2
	for i, l := range ledgers {
		row := []interface{}{
			l.StudentName, l.Grade, string(l.GradeCategory), string(l.PaymentType), string(l.OverallStatus),
			toFloat(l.Totals.Tuition), toFloat(l.Totals.RegistrationFee), toFloat(l.Totals.Uniform),
			toFloat(l.Totals.Transportation), toFloat(l.Totals.GrandTotal),
			toFloat(l.Paid.GrandTotal), toFloat(l.Remaining.GrandTotal), toFloat(l.Discount.Amount),
		}
		if err := writeRow(f, ledgerSheet, i+2, row); err != nil {
			return nil, errors.Wrapf(err, "ledger row %d", i+2)
		}

		tracks := []exportTrack{{models.TrackTuition, l.Tuition.Schedule}}
		if l.Transportation.Using {
			tracks = append(tracks, exportTrack{models.TrackTransportation, l.Transportation.Schedule})
		}
		for _, tr := range tracks {
			for _, inst := range tr.schedule {
				row := []interface{}{
					l.StudentName, string(tr.name), inst.MonthName, inst.DueDate.Format("02/01/2006"),
					toFloat(inst.Amount), toFloat(inst.PaidAmount), string(inst.Status), inst.Payment.Receipt,
				}
				if err := writeRow(f, installmentSheet, instRow, row); err != nil {
					return nil, errors.Wrapf(err, "installment row %d", instRow)
				}
				instRow++
			}
		}
	}

	if err := f.SetColWidth(ledgerSheet, "A", "A", 28); err != nil {
		return nil, errors.Wrap(err, "column width")
	}
	if err := f.SetColWidth(installmentSheet, "A", "A", 28); err != nil {
		return nil, errors.Wrap(err, "column width")
	}
	return f, nil
}
