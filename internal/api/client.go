// Package api is the typed client for the payroll administration backend.
// Every method is a single round trip; the server is the source of truth and
// nothing is cached client-side beyond the session credential.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"mime"
	"mime/multipart"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/customhttp"
	"github.com/fciautomation/payroll-admin-client/internal/model"
)

type ClientInterface interface {
	Employees(ctx context.Context) ([]model.Employee, error)
	CreateEmployee(ctx context.Context, emp model.Employee) (*model.Employee, error)
	UpdateEmployee(ctx context.Context, emp model.Employee) (*model.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	ImportEmployees(ctx context.Context, fileName string, data []byte) ([]model.Employee, error)

	Periods(ctx context.Context) ([]model.PayrollPeriod, error)
	Period(ctx context.Context, id string) (*model.PayrollPeriod, error)
	CreatePeriod(ctx context.Context, req CreatePeriodRequest) (*model.PayrollPeriod, error)
	ClosePeriod(ctx context.Context, id string) (*model.PayrollPeriod, error)
	ReopenPeriod(ctx context.Context, id string) (*model.PayrollPeriod, error)
	PeriodEntries(ctx context.Context, periodID string) ([]model.PayrollEntry, error)
	SaveEntries(ctx context.Context, entries []model.PayrollEntry) ([]model.PayrollEntry, error)
	ImportEntries(ctx context.Context, periodID, fileName string, data []byte) (*model.ImportResult, error)
	ImportUTR(ctx context.Context, periodID, fileName string, data []byte) (*model.ImportResult, error)
	DownloadTemplate(ctx context.Context) (*File, error)

	DownloadReport(ctx context.Context, periodID, reportType, paymentDate string) (*File, error)

	Documents(ctx context.Context, periodID string) ([]model.UploadDocument, error)
	UploadDocument(ctx context.Context, req UploadDocumentRequest) (*model.UploadDocument, error)
	DownloadDocument(ctx context.Context, id string) (*File, error)

	IssueSlips(ctx context.Context) ([]model.IssueSlip, error)
	ExtractIssueSlips(ctx context.Context, images []FilePart) ([]model.IssueSlip, error)
	SaveIssueSlips(ctx context.Context, slips []model.IssueSlip) error
}

func NewClient(endpoint string, c customhttp.HTTPCommand) *client {
	return &client{
		URL:         endpoint,
		HTTPCommand: c,
	}
}

type client struct {
	URL         string
	HTTPCommand customhttp.HTTPCommand
}

// File is a downloaded binary plus the name the server suggested for it via
// Content-Disposition.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FilePart is one file of a multipart upload.
type FilePart struct {
	Field    string
	FileName string
	Data     []byte
}

func (c *client) newJSONRequest(ctx context.Context, method, url string, payload interface{}) (*http.Request, error) {
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		httpRequest.Header.Set("Content-Type", "application/json")
	}
	httpRequest.Header.Set("Accept", "application/json")
	return httpRequest, nil
}

func (c *client) newMultipartRequest(ctx context.Context, url string, fields map[string]string, files ...FilePart) (*http.Request, error) {
	buf := bytes.NewBuffer(nil)
	writer := multipart.NewWriter(buf)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", writer.FormDataContentType())
	return httpRequest, nil
}

// do executes the request and decodes a JSON body into out when out is
// non-nil. Non-2xx statuses become a *StatusError carrying the server's
// {message} when one is present.
func (c *client) do(ctx context.Context, apiName string, httpRequest *http.Request, out interface{}) error {
	contextLogger := log.WithContext(ctx)

	resp, err := c.HTTPCommand.Do(httpRequest)
	if err != nil {
		contextLogger.WithError(err).Errorf("there was an error calling the %s API. %v", apiName, err)
		return err
	}

	defer func() {
		if err = resp.Body.Close(); err != nil {
			fmt.Println("Error when closing:", err)
		}
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		contextLogger.Infof("status returned from payroll service (%s) %s ", apiName, resp.Status)
		return errorFromResponse(apiName, resp)
	}

	if out == nil {
		return nil
	}

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		contextLogger.WithError(err).Errorf("error reading %s API resp body (%s)", apiName, body)
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		contextLogger.WithError(err).Errorf("there was an error un marshalling the %s resp. %v", apiName, err)
		return fmt.Errorf("there was an error un marshalling the %s resp. cause: %v", apiName, err)
	}
	return nil
}

// download executes the request and returns the raw body with the filename
// taken from Content-Disposition, or the given fallback when the header is
// absent or unparseable.
func (c *client) download(ctx context.Context, apiName string, httpRequest *http.Request, fallbackName string) (*File, error) {
	contextLogger := log.WithContext(ctx)

	resp, err := c.HTTPCommand.Do(httpRequest)
	if err != nil {
		contextLogger.WithError(err).Errorf("there was an error calling the %s API. %v", apiName, err)
		return nil, err
	}

	defer func() {
		if err = resp.Body.Close(); err != nil {
			fmt.Println("Error when closing:", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		contextLogger.Infof("status returned from payroll service (%s) %s ", apiName, resp.Status)
		return nil, errorFromResponse(apiName, resp)
	}

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		contextLogger.WithError(err).Errorf("error reading %s API resp body", apiName)
		return nil, err
	}

	name := fallbackName
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if fn := params["filename"]; fn != "" {
				name = fn
			}
		}
	}

	return &File{
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
