package controllers

import (
	"net/http"
	"schoolfees_go/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusForFeeError(t *testing.T) {
	cases := map[models.FeeErrorKind]int{
		models.KindLedgerNotFound:       http.StatusNotFound,
		models.KindStudentNotFound:      http.StatusNotFound,
		models.KindInstallmentNotFound:  http.StatusNotFound,
		models.KindConfigurationMissing: http.StatusNotFound,
		models.KindAlreadyExists:        http.StatusConflict,
		models.KindAlreadyPaid:          http.StatusConflict,
		models.KindAnnualAlreadyPaid:    http.StatusConflict,
		models.KindComponentAlreadyPaid: http.StatusConflict,
		models.KindTierLockedByPayment:  http.StatusConflict,
		models.KindVersionConflict:      http.StatusConflict,
		models.KindUnknownGrade:         http.StatusBadRequest,
		models.KindTierDisabled:         http.StatusBadRequest,
		models.KindNoDiscountApplied:    http.StatusBadRequest,
		models.KindInvalidAmount:        http.StatusBadRequest,
	}
	for kind, want := range cases {
		t.Run(string(kind), func(t *testing.T) {
			assert.Equal(t, want, StatusForFeeError(kind))
		})
	}
}

func TestGenerateRequestDefaults(t *testing.T) {
	opts := GenerateRequest{TransportTier: "none"}.options()
	assert.True(t, opts.IncludeRegistrationFee)
	assert.Equal(t, models.TransportNone, opts.TransportTier)

	no := false
	opts = GenerateRequest{TransportTier: "far", IncludeRegistrationFee: &no}.options()
	assert.False(t, opts.IncludeRegistrationFee)
	assert.Equal(t, models.TransportFar, opts.TransportTier)
}

func TestCheckStructReportsFields(t *testing.T) {
	err := checkStruct(&DiscountRequest{Type: "weekly"})
	bad, ok := err.(*invalidRequest)
	if assert.True(t, ok) {
		assert.Equal(t, "oneof", bad.fields["Type"])
	}
	assert.NoError(t, checkStruct(&DiscountRequest{Type: models.DiscountAnnual}))
}
