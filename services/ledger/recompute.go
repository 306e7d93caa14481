package ledger

import (
	"schoolfees_go/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// clone copies l deeply enough that mutating the copy never reaches l.
func clone(l *models.StudentFeeLedger) *models.StudentFeeLedger {
	c := *l
	c.Tuition.Schedule = copySchedule(l.Tuition.Schedule)
	c.Transportation.Schedule = copySchedule(l.Transportation.Schedule)
	return &c
}

func copySchedule(s datatypes.JSONSlice[models.Installment]) datatypes.JSONSlice[models.Installment] {
	if s == nil {
		return nil
	}
	out := make(datatypes.JSONSlice[models.Installment], len(s))
	copy(out, s)
	return out
}

// recomputeAmounts restores the aggregate invariants: non-applicable
// components count zero everywhere, grand totals are component sums, and
// remaining is always totals minus paid.
func recomputeAmounts(l *models.StudentFeeLedger) {
	t := &l.Totals
	p := &l.Paid

	t.Tuition = l.Tuition.AnnualAmount

	t.RegistrationFee, p.RegistrationFee = lumpSumAmounts(l.RegistrationFee)
	t.Uniform, p.Uniform = lumpSumAmounts(l.Uniform)

	if l.Transportation.Using {
		t.Transportation = l.Transportation.TotalAmount
	} else {
		t.Transportation = decimal.Zero
		p.Transportation = decimal.Zero
	}

	t.GrandTotal = t.Tuition.Add(t.RegistrationFee).Add(t.Uniform).Add(t.Transportation)
	p.GrandTotal = p.Tuition.Add(p.RegistrationFee).Add(p.Uniform).Add(p.Transportation)

	l.Remaining = models.ComponentAmounts{
		Tuition:         t.Tuition.Sub(p.Tuition),
		RegistrationFee: t.RegistrationFee.Sub(p.RegistrationFee),
		Uniform:         t.Uniform.Sub(p.Uniform),
		Transportation:  t.Transportation.Sub(p.Transportation),
		GrandTotal:      t.GrandTotal.Sub(p.GrandTotal),
	}
}

func lumpSumAmounts(fee models.LumpSumFee) (total, paid decimal.Decimal) {
	if !fee.Applicable {
		return decimal.Zero, decimal.Zero
	}
	if fee.IsPaid {
		return fee.Price, fee.Price
	}
	return fee.Price, decimal.Zero
}

// scheduleTarget is what the tuition installments should add up to. An
// annual discount is taken off the yearly total only, so its schedule keeps
// the undiscounted price.
func scheduleTarget(l *models.StudentFeeLedger) decimal.Decimal {
	if l.Discount.Enabled && l.Discount.Type == models.DiscountAnnual {
		return l.Tuition.BaseAmount
	}
	return l.Tuition.AnnualAmount
}

// respreadPending spreads what is left of target over installments with
// nothing paid yet. Paid and partial installments keep their amounts.
func respreadPending(l *models.StudentFeeLedger, target decimal.Decimal) {
	committed := decimal.Zero
	var open []int
	for i, inst := range l.Tuition.Schedule {
		if inst.PaidAmount.IsPositive() {
			committed = committed.Add(inst.Amount)
			continue
		}
		open = append(open, i)
	}
	if len(open) == 0 {
		return
	}
	for k, amount := range spread(target.Sub(committed), len(open)) {
		l.Tuition.Schedule[open[k]].Amount = amount
	}
}
