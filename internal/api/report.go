package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Report types the backend can generate.
const (
	ReportWageRegister = "wage"
	ReportESIReturn    = "esi"
	ReportEPFReturn    = "epf"
	ReportBulkPayment  = "bulk"
)

// DownloadReport fetches a generated report for the period. paymentDate is
// only meaningful for the bulk payment file and is ignored otherwise.
func (c *client) DownloadReport(ctx context.Context, periodID, reportType, paymentDate string) (*File, error) {
	contextLogger := log.WithContext(ctx)
	contextLogger.Infof("Downloading %s report for period %s", reportType, periodID)

	endpoint := c.buildReportEndpoint(periodID, reportType)
	if reportType == ReportBulkPayment && paymentDate != "" {
		endpoint += "?paymentDate=" + url.QueryEscape(paymentDate)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	return c.download(ctx, "DownloadReport", httpRequest, fallbackReportName(reportType, time.Now()))
}

// fallbackReportName mirrors the names the server normally sends in
// Content-Disposition, for responses that omit the header.
func fallbackReportName(reportType string, now time.Time) string {
	switch reportType {
	case ReportESIReturn:
		return "esi_return.xls"
	case ReportEPFReturn:
		return "epf_return.txt"
	case ReportBulkPayment:
		mon := strings.ToLower(now.Format("Jan"))
		return fmt.Sprintf("%s_bulk_payment.txt", mon)
	default:
		return fmt.Sprintf("%s_report.pdf", reportType)
	}
}

func (c *client) buildReportEndpoint(periodID, reportType string) string {
	return c.URL + "/reports/" + periodID + "/" + reportType
}
