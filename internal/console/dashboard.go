package console

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/model"
)

// Entry modes a period can be opened into.
const (
	ModePayroll = "payroll"
	ModeCasual  = "casual"
)

// DashboardPage starts payroll entry for a month: it creates the period and
// hands back the destination to navigate to. A conflict on create means the
// period already exists, so the page re-fetches the list and finds it.
type DashboardPage struct {
	backend api.ClientInterface
	dialog  Dialog
	out     io.Writer
	Periods []model.PayrollPeriod
}

func NewDashboardPage(backend api.ClientInterface, dialog Dialog, out io.Writer) *DashboardPage {
	return &DashboardPage{backend: backend, dialog: dialog, out: out}
}

func (p *DashboardPage) Activate(ctx context.Context) {
	periods, err := p.backend.Periods(ctx)
	if err != nil {
		p.dialog.Alert("Error", api.ErrorMessage(err))
		return
	}
	p.Periods = periods
	for _, period := range periods {
		fmt.Fprintf(p.out, "  %02d/%d (%s) last working day %s\n",
			period.Month, period.Year, period.Status, period.LastWorkingDay)
	}
}

// PrefillLastWorkingDay returns the stored last working day for the
// selection when the period already exists, so the form shows the real
// value instead of a default.
func (p *DashboardPage) PrefillLastWorkingDay(month, year int) (string, bool) {
	for _, period := range p.Periods {
		if period.Month == month && period.Year == year && period.LastWorkingDay != "" {
			return period.LastWorkingDay, true
		}
	}
	return "", false
}

// StartEntry creates the period and returns the entry destination for the
// requested mode. On a 409 the existing period is looked up once; the list
// endpoint is assumed consistent with the create endpoint, and when the
// period still cannot be found the user is told to check history rather
// than the client polling.
func (p *DashboardPage) StartEntry(ctx context.Context, req api.CreatePeriodRequest, mode string) (string, error) {
	contextLogger := log.WithContext(ctx)

	period, err := p.backend.CreatePeriod(ctx, req)
	if err == nil {
		return entryDestination(mode, period.ID), nil
	}

	if !api.IsConflict(err) {
		p.dialog.Alert("Error", "Failed to start period: "+api.ErrorMessage(err))
		return "", err
	}

	contextLogger.Infof("period %d/%d exists, finding it", req.Month, req.Year)
	periods, listErr := p.backend.Periods(ctx)
	if listErr != nil {
		p.dialog.Alert("Error", api.ErrorMessage(listErr))
		return "", listErr
	}
	p.Periods = periods

	for _, existing := range periods {
		if existing.Month == req.Month && existing.Year == req.Year {
			return entryDestination(mode, existing.ID), nil
		}
	}

	p.dialog.Alert("Error", "Period exists but could not be found. Please check History.")
	return "", err
}

func entryDestination(mode, periodID string) string {
	if mode == ModeCasual {
		return "/payroll/attendance-casual/" + periodID
	}
	return "/payroll/entry/" + periodID
}
