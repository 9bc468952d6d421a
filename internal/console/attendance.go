package console

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/model"
)

// AttendancePage marks calendar days for casual-labour employees. A
// marked-days count that disagrees with daysWorked is surfaced on every
// render and blocks finalize, but not save: partially marked grids must
// survive navigation.
type AttendancePage struct {
	backend api.ClientInterface
	dialog  Dialog
	out     io.Writer

	Period  *model.PayrollPeriod
	Entries []model.PayrollEntry
}

func NewAttendancePage(backend api.ClientInterface, dialog Dialog, out io.Writer) *AttendancePage {
	return &AttendancePage{backend: backend, dialog: dialog, out: out}
}

func (p *AttendancePage) Activate(ctx context.Context, periodID string) {
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
	for i := range entries {
		if entries[i].ActiveDays == nil {
			entries[i].ActiveDays = []int{}
		}
	}
	p.Entries = entries
	p.render()
}

// ToggleDay flips one day of one entry.
func (p *AttendancePage) ToggleDay(memberID string, day int) {
	for i := range p.Entries {
		if p.Entries[i].Employee.MemberID == memberID {
			p.Entries[i].ToggleDay(day)
			return
		}
	}
}

// ToggleColumn marks a day for every entry, or unmarks it everywhere when
// every entry already has it.
func (p *AttendancePage) ToggleColumn(day int) {
	allMarked := true
	for i := range p.Entries {
		if !p.Entries[i].DayActive(day) {
			allMarked = false
			break
		}
	}
	for i := range p.Entries {
		if allMarked {
			if p.Entries[i].DayActive(day) {
				p.Entries[i].ToggleDay(day)
			}
		} else if !p.Entries[i].DayActive(day) {
			p.Entries[i].ToggleDay(day)
		}
	}
}

// HasMismatch reports whether any entry's marked days disagree with its
// daysWorked count.
func (p *AttendancePage) HasMismatch() bool {
	for i := range p.Entries {
		if p.Entries[i].AttendanceMismatch() {
			return true
		}
	}
	return false
}

func (p *AttendancePage) Save(ctx context.Context) error {
	updated, err := p.backend.SaveEntries(ctx, p.Entries)
	if err != nil {
		p.dialog.Alert("Error", "Failed to save: "+api.ErrorMessage(err))
		return err
	}
	p.Entries = updated
	p.dialog.Alert("Success", "Attendance saved")
	return nil
}

// Finalize refuses to lock while any entry has a mismatch.
func (p *AttendancePage) Finalize(ctx context.Context) {
	if p.Period == nil {
		return
	}
	if p.HasMismatch() {
		p.dialog.Alert("Cannot Finalize", "Marked days do not match Days Worked for some employees.")
		return
	}
	if !p.dialog.Confirm("Finalize Period", "This will SAVE current data and LOCK the period. Continue?") {
		return
	}
	if err := p.Save(ctx); err != nil {
		return
	}
	period, err := p.backend.ClosePeriod(ctx, p.Period.ID)
	if err != nil {
		p.dialog.Alert("Error", "Failed to finalize: "+api.ErrorMessage(err))
		return
	}
	p.Period = period
}

func (p *AttendancePage) render() {
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER ID\tNAME\tMARKED/DAYS\tWAGES")
	for i := range p.Entries {
		e := &p.Entries[i]
		marker := ""
		if e.AttendanceMismatch() {
			marker = " (mismatch)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d/%d%s\t%.2f\n",
			e.Employee.MemberID, e.Employee.FullName, len(e.ActiveDays), e.DaysWorked, marker, e.WagesEarned)
	}
	_ = w.Flush()
}
