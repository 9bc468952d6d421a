package api

import (
	"context"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/model"
)

type UploadDocumentRequest struct {
	FileName string
	Data     []byte
	Type     string
	SubType  string
	PeriodID string
}

func (c *client) Documents(ctx context.Context, periodID string) ([]model.UploadDocument, error) {
	endpoint := c.buildUploadEndpoint()
	if periodID != "" {
		endpoint += "?periodId=" + url.QueryEscape(periodID)
	}

	httpRequest, err := c.newJSONRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var response []model.UploadDocument
	if err := c.do(ctx, "Documents", httpRequest, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// UploadDocument stores a compliance document against its (type, subType,
// period) slot. The server owns dedup; the console checks the slot up front
// so a replacement is always an explicit user decision.
func (c *client) UploadDocument(ctx context.Context, req UploadDocumentRequest) (*model.UploadDocument, error) {
	log.WithContext(ctx).Infof("Uploading document %s/%s for period %s", req.Type, req.SubType, req.PeriodID)

	fields := map[string]string{
		"type":     req.Type,
		"subType":  req.SubType,
		"periodId": req.PeriodID,
	}
	httpRequest, err := c.newMultipartRequest(ctx, c.buildUploadEndpoint(), fields, FilePart{
		Field:    "file",
		FileName: req.FileName,
		Data:     req.Data,
	})
	if err != nil {
		return nil, err
	}

	response := &model.UploadDocument{}
	if err := c.do(ctx, "UploadDocument", httpRequest, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) DownloadDocument(ctx context.Context, id string) (*File, error) {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildUploadEndpoint()+"/"+id+"/download", nil)
	if err != nil {
		return nil, err
	}
	return c.download(ctx, "DownloadDocument", httpRequest, "download.pdf")
}

func (c *client) buildUploadEndpoint() string {
	return c.URL + "/upload"
}
