package api

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/model"
)

type CreatePeriodRequest struct {
	Month          int    `json:"month"`
	Year           int    `json:"year"`
	LastWorkingDay string `json:"lastWorkingDay"`
}

func (c *client) Periods(ctx context.Context) ([]model.PayrollPeriod, error) {
	httpRequest, err := c.newJSONRequest(ctx, http.MethodGet, c.buildPeriodsEndpoint(), nil)
	if err != nil {
		return nil, err
	}

	var response []model.PayrollPeriod
	if err := c.do(ctx, "Periods", httpRequest, &response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) Period(ctx context.Context, id string) (*model.PayrollPeriod, error) {
	httpRequest, err := c.newJSONRequest(ctx, http.MethodGet, c.buildPeriodEndpoint(id), nil)
	if err != nil {
		return nil, err
	}

	response := &model.PayrollPeriod{}
	if err := c.do(ctx, "Period", httpRequest, response); err != nil {
		return nil, err
	}
	return response, nil
}

// CreatePeriod opens a new payroll cycle. A 409 means the (month, year)
// period already exists; callers recover by refetching the period list.
func (c *client) CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*model.PayrollPeriod, error) {
	log.WithContext(ctx).Infof("Creating payroll period %d/%d", req.Month, req.Year)

	httpRequest, err := c.newJSONRequest(ctx, http.MethodPost, c.buildPeriodsEndpoint(), req)
	if err != nil {
		return nil, err
	}

	response := &model.PayrollPeriod{}
	if err := c.do(ctx, "CreatePeriod", httpRequest, response); err != nil {
		return nil, err
	}
	return response, nil
}

// ClosePeriod requests the OPEN -> CLOSED transition. The transition is
// server-authoritative; closing an already closed period returns the current
// state unchanged.
func (c *client) ClosePeriod(ctx context.Context, id string) (*model.PayrollPeriod, error) {
	log.WithContext(ctx).Info("Closing payroll period: ", id)

	httpRequest, err := c.newJSONRequest(ctx, http.MethodPost, c.buildPeriodEndpoint(id)+"/close", nil)
	if err != nil {
		return nil, err
	}

	response := &model.PayrollPeriod{}
	if err := c.do(ctx, "ClosePeriod", httpRequest, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) ReopenPeriod(ctx context.Context, id string) (*model.PayrollPeriod, error) {
	log.WithContext(ctx).Info("Reopening payroll period: ", id)

	httpRequest, err := c.newJSONRequest(ctx, http.MethodPost, c.buildPeriodEndpoint(id)+"/reopen", nil)
	if err != nil {
		return nil, err
	}

	response := &model.PayrollPeriod{}
	if err := c.do(ctx, "ReopenPeriod", httpRequest, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) PeriodEntries(ctx context.Context, periodID string) ([]model.PayrollEntry, error) {
	httpRequest, err := c.newJSONRequest(ctx, http.MethodGet, c.buildPeriodEndpoint(periodID)+"/entries", nil)
	if err != nil {
		return nil, err
	}

	var response []model.PayrollEntry
	if err := c.do(ctx, "PeriodEntries", httpRequest, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// SaveEntries persists the grid and returns the entries with server-side
// wage calculation applied.
func (c *client) SaveEntries(ctx context.Context, entries []model.PayrollEntry) ([]model.PayrollEntry, error) {
	log.WithContext(ctx).Info("Saving payroll entries: ", len(entries))

	httpRequest, err := c.newJSONRequest(ctx, http.MethodPut, c.buildEntriesEndpoint(), entries)
	if err != nil {
		return nil, err
	}

	var response []model.PayrollEntry
	if err := c.do(ctx, "SaveEntries", httpRequest, &response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) ImportEntries(ctx context.Context, periodID, fileName string, data []byte) (*model.ImportResult, error) {
	log.WithContext(ctx).Info("Importing payroll entries for period: ", periodID)

	httpRequest, err := c.newMultipartRequest(ctx, c.buildImportEndpoint(periodID), nil, FilePart{
		Field:    "file",
		FileName: fileName,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}

	response := &model.ImportResult{}
	if err := c.do(ctx, "ImportEntries", httpRequest, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) ImportUTR(ctx context.Context, periodID, fileName string, data []byte) (*model.ImportResult, error) {
	log.WithContext(ctx).Info("Importing UTR numbers for period: ", periodID)

	httpRequest, err := c.newMultipartRequest(ctx, c.buildUTRImportEndpoint(periodID), nil, FilePart{
		Field:    "file",
		FileName: fileName,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}

	response := &model.ImportResult{}
	if err := c.do(ctx, "ImportUTR", httpRequest, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) DownloadTemplate(ctx context.Context) (*File, error) {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildTemplateEndpoint(), nil)
	if err != nil {
		return nil, err
	}
	return c.download(ctx, "DownloadTemplate", httpRequest, "Payroll_Import_Template.xlsx")
}

func (c *client) buildPeriodsEndpoint() string {
	return c.URL + "/payroll/periods"
}

func (c *client) buildPeriodEndpoint(id string) string {
	return c.URL + "/payroll/periods/" + id
}

func (c *client) buildEntriesEndpoint() string {
	return c.URL + "/payroll/entries"
}

func (c *client) buildImportEndpoint(periodID string) string {
	return c.URL + "/payroll/import/" + periodID
}

func (c *client) buildUTRImportEndpoint(periodID string) string {
	return c.URL + "/payroll/import/utr/" + periodID
}

func (c *client) buildTemplateEndpoint() string {
	return c.URL + "/payroll/import/template"
}
