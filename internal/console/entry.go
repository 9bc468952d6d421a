package console

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/model"
	"github.com/fciautomation/payroll-admin-client/internal/notify"
	"github.com/fciautomation/payroll-admin-client/internal/sheets"
)

// EntryPage is the monthly payroll grid. Wage calculation is entirely
// server-side: saving sends the grid up and renders whatever comes back.
type EntryPage struct {
	backend  api.ClientInterface
	dialog   Dialog
	out      io.Writer
	notifier *notify.Notifier

	Period  *model.PayrollPeriod
	Entries []model.PayrollEntry
}

func NewEntryPage(backend api.ClientInterface, dialog Dialog, out io.Writer, notifier *notify.Notifier) *EntryPage {
	return &EntryPage{backend: backend, dialog: dialog, out: out, notifier: notifier}
}

func (p *EntryPage) Activate(ctx context.Context, periodID string) {
	period, err := p.backend.Period(ctx, periodID)
	if err != nil {
		p.dialog.Alert("Error", api.ErrorMessage(err))
		return
	}
	p.Period = period

	entries, err := p.backend.PeriodEntries(ctx, periodID)
	if err != nil {
		p.dialog.Alert("Error", api.ErrorMessage(err))
		return
	}
	p.Entries = entries
	p.sortEntries()
	p.render()
}

// SaveAndCalculate persists the grid; the response carries the server-side
// EPF/ESI shares and net payable.
func (p *EntryPage) SaveAndCalculate(ctx context.Context) error {
	updated, err := p.backend.SaveEntries(ctx, p.Entries)
	if err != nil {
		p.dialog.Alert("Error", "Failed to save: "+api.ErrorMessage(err))
		return err
	}
	p.Entries = updated
	p.sortEntries()
	p.dialog.Alert("Success", "Saved & Calculated Successfully")
	return nil
}

// Finalize saves the current grid and then requests the period lock. The
// close is server-authoritative; the client only asks.
func (p *EntryPage) Finalize(ctx context.Context) {
	if p.Period == nil {
		return
	}
	if !p.dialog.Confirm("Finalize Period", "This will SAVE current data and LOCK the period. Continue?") {
		return
	}

	updated, err := p.backend.SaveEntries(ctx, p.Entries)
	if err != nil {
		p.dialog.Alert("Error", "Failed to save: "+api.ErrorMessage(err))
		return
	}
	p.Entries = updated
	p.sortEntries()

	period, err := p.backend.ClosePeriod(ctx, p.Period.ID)
	if err != nil {
		p.dialog.Alert("Error", "Failed to finalize: "+api.ErrorMessage(err))
		return
	}
	p.Period = period
	p.dialog.Alert("Success", fmt.Sprintf("Period %02d/%d is now %s", period.Month, period.Year, period.Status))

	if p.notifier.Enabled() {
		if err := p.notifier.SendFinalizeSummary(ctx, period, len(p.Entries)); err != nil {
			log.WithContext(ctx).WithError(err).Error("failed to send finalize summary")
		}
	}
}

// Reopen requests the CLOSED -> OPEN transition.
func (p *EntryPage) Reopen(ctx context.Context) {
	if p.Period == nil {
		return
	}
	period, err := p.backend.ReopenPeriod(ctx, p.Period.ID)
	if err != nil {
		p.dialog.Alert("Error", "Failed to reopen: "+api.ErrorMessage(err))
		return
	}
	p.Period = period
}

// DownloadTemplate saves the import template served by the backend.
func (p *EntryPage) DownloadTemplate(ctx context.Context, dir string) {
	file, err := p.backend.DownloadTemplate(ctx)
	if err != nil {
		p.dialog.Alert("Error", "Failed to download template")
		return
	}
	path, err := saveFile(dir, file)
	if err != nil {
		p.dialog.Alert("Error", err.Error())
		return
	}
	fmt.Fprintln(p.out, "Saved template to", path)
}

// ImportWorkbook uploads a filled template and refreshes the grid.
func (p *EntryPage) ImportWorkbook(ctx context.Context, fileName string, data []byte) {
	if p.Period == nil {
		return
	}
	if err := sheets.ValidateEntryWorkbook(ctx, fileName, data); err != nil {
		p.dialog.Alert("Invalid File", err.Error())
		return
	}
	result, err := p.backend.ImportEntries(ctx, p.Period.ID, fileName, data)
	if err != nil {
		p.dialog.Alert("Error", "Import Failed: "+api.ErrorMessage(err))
		return
	}
	p.dialog.Alert("Success", result.Message)
	p.Activate(ctx, p.Period.ID)
}

// ImportUTR uploads the bank UTR sheet after payment.
func (p *EntryPage) ImportUTR(ctx context.Context, fileName string, data []byte) {
	if p.Period == nil {
		return
	}
	result, err := p.backend.ImportUTR(ctx, p.Period.ID, fileName, data)
	if err != nil {
		p.dialog.Alert("Error", "Import Failed: "+api.ErrorMessage(err))
		return
	}
	p.dialog.Alert("Success", result.Message)
	p.Activate(ctx, p.Period.ID)
}

func (p *EntryPage) sortEntries() {
	sort.SliceStable(p.Entries, func(i, j int) bool {
		return p.Entries[i].Employee.MemberID < p.Entries[j].Employee.MemberID
	})
}

func (p *EntryPage) render() {
	if p.Period != nil {
		fmt.Fprintf(p.out, "Period %02d/%d (%s)\n", p.Period.Month, p.Period.Year, p.Period.Status)
	}
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER ID\tNAME\tDAYS\tWAGES\tADVANCE\tEPF\tESI\tNET PAYABLE")
	for _, e := range p.Entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			e.Employee.MemberID, e.Employee.FullName, e.DaysWorked,
			e.WagesEarned, e.AdvanceDeduction, e.EPFMemberShare, e.ESIMemberShare, e.NetPayable)
	}
	_ = w.Flush()
}
