package console

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/model"
	"github.com/fciautomation/payroll-admin-client/internal/notify"
)

const filePerm = 0600

// ReportPage lists periods and downloads generated report files. Files land
// in the configured download directory under the server-suggested name.
type ReportPage struct {
	backend  api.ClientInterface
	dialog   Dialog
	out      io.Writer
	notifier *notify.Notifier
	dir      string

	Periods []model.PayrollPeriod
}

func NewReportPage(backend api.ClientInterface, dialog Dialog, out io.Writer, notifier *notify.Notifier, dir string) *ReportPage {
	return &ReportPage{backend: backend, dialog: dialog, out: out, notifier: notifier, dir: dir}
}

func (p *ReportPage) Activate(ctx context.Context) {
	periods, err := p.backend.Periods(ctx)
	if err != nil {
		p.dialog.Alert("Error", api.ErrorMessage(err))
		return
	}
	p.Periods = periods
	for _, period := range periods {
		fmt.Fprintf(p.out, "  %s  %02d/%d (%s)\n", period.ID, period.Month, period.Year, period.Status)
	}
}

// Download fetches one report and writes it to disk. paymentDate applies to
// the bulk payment file only. With email configured, the file is also sent
// to the recipients.
func (p *ReportPage) Download(ctx context.Context, periodID, reportType, paymentDate string) {
	file, err := p.backend.DownloadReport(ctx, periodID, reportType, paymentDate)
	if err != nil {
		p.dialog.Alert("Error", "Download failed! "+api.ErrorMessage(err))
		return
	}

	path, err := saveFile(p.dir, file)
	if err != nil {
		p.dialog.Alert("Error", err.Error())
		return
	}
	fmt.Fprintln(p.out, "Saved report to", path)

	if p.notifier.Enabled() {
		period := p.findPeriod(periodID)
		if period == nil {
			return
		}
		if err := p.notifier.SendReport(ctx, period, file); err != nil {
			log.WithContext(ctx).WithError(err).Error("failed to email report")
		}
	}
}

func (p *ReportPage) findPeriod(id string) *model.PayrollPeriod {
	for i := range p.Periods {
		if p.Periods[i].ID == id {
			return &p.Periods[i]
		}
	}
	return nil
}

func saveFile(dir string, file *api.File) (string, error) {
	path := filepath.Join(dir, filepath.Base(file.Name))
	if err := ioutil.WriteFile(path, file.Data, filePerm); err != nil {
		return "", fmt.Errorf("could not write %s: %v", path, err)
	}
	return path, nil
}
