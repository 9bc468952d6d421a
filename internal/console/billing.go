package console

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/model"
)

// BillingPage drives the issue-slip workflow: send slip images to the
// server-side extraction, let the user correct rows, and save the batch.
// Correcting a row only reclassifies it locally; the server never sees an
// intermediate status.
type BillingPage struct {
	backend api.ClientInterface
	dialog  Dialog
	out     io.Writer

	// Slips holds the working set from the last extraction.
	Slips []model.IssueSlip
	// Saved holds the slips already persisted server-side.
	Saved []model.IssueSlip
}

func NewBillingPage(backend api.ClientInterface, dialog Dialog, out io.Writer) *BillingPage {
	return &BillingPage{backend: backend, dialog: dialog, out: out}
}

func (p *BillingPage) Activate(ctx context.Context) {
	saved, err := p.backend.IssueSlips(ctx)
	if err != nil {
		p.dialog.Alert("Error", "Failed to load saved slips: "+api.ErrorMessage(err))
		return
	}
	p.Saved = saved
	p.render(p.Saved)
}

// Extract submits slip images and replaces the working set with the
// recognized rows.
func (p *BillingPage) Extract(ctx context.Context, images []api.FilePart) {
	slips, err := p.backend.ExtractIssueSlips(ctx, images)
	if err != nil {
		p.dialog.Alert("Error", "Extraction Failed: "+api.ErrorMessage(err))
		return
	}
	p.Slips = slips
	p.render(p.Slips)
}

// Edit applies a manual correction to a row and reclassifies it.
func (p *BillingPage) Edit(index int, apply func(slip *model.IssueSlip)) {
	if index < 0 || index >= len(p.Slips) {
		return
	}
	apply(&p.Slips[index])
	p.Slips[index].MarkEdited()
}

// Remove drops a row from the working set.
func (p *BillingPage) Remove(index int) {
	if index < 0 || index >= len(p.Slips) {
		return
	}
	p.Slips = append(p.Slips[:index], p.Slips[index+1:]...)
}

// Save persists the working set as one batch. Any unverified or incomplete
// row blocks the save.
func (p *BillingPage) Save(ctx context.Context) {
	if model.HasVerificationErrors(p.Slips) {
		p.dialog.Alert("Cannot Save", "Some slips still need verification or are missing fields.")
		return
	}
	if err := p.backend.SaveIssueSlips(ctx, p.Slips); err != nil {
		p.dialog.Alert("Error", "Save Failed: "+api.ErrorMessage(err))
		return
	}
	p.dialog.Alert("Success", fmt.Sprintf("Saved %d issue slips.", len(p.Slips)))
	p.Slips = nil
	p.Activate(ctx)
}

func (p *BillingPage) render(slips []model.IssueSlip) {
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLIP NO\tDATE\tBAGS\tSTATUS\tWARNING")
	for _, s := range slips {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", s.SlipNumber, s.EntryDate, s.TotalBags, s.Status, s.WarningMessage)
	}
	_ = w.Flush()
}
