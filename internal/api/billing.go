package api

import (
	"context"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fciautomation/payroll-admin-client/internal/model"
)

func (c *client) IssueSlips(ctx context.Context) ([]model.IssueSlip, error) {
	httpRequest, err := c.newJSONRequest(ctx, http.MethodGet, c.buildIssueEndpoint("list"), nil)
	if err != nil {
		return nil, err
	}

	var response []model.IssueSlip
	if err := c.do(ctx, "IssueSlips", httpRequest, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// ExtractIssueSlips sends slip images to the server-side extraction and
// returns the recognized rows, each carrying its extraction status and
// confidence.
func (c *client) ExtractIssueSlips(ctx context.Context, images []FilePart) ([]model.IssueSlip, error) {
	log.WithContext(ctx).Info("Extracting issue slips from images: ", len(images))

	httpRequest, err := c.newMultipartRequest(ctx, c.buildIssueEndpoint("extract"), nil, images...)
	if err != nil {
		return nil, err
	}

	var response []model.IssueSlip
	if err := c.do(ctx, "ExtractIssueSlips", httpRequest, &response); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *client) SaveIssueSlips(ctx context.Context, slips []model.IssueSlip) error {
	log.WithContext(ctx).Info("Saving issue slips: ", len(slips))

	httpRequest, err := c.newJSONRequest(ctx, http.MethodPost, c.buildIssueEndpoint("save"), slips)
	if err != nil {
		return err
	}
	return c.do(ctx, "SaveIssueSlips", httpRequest, nil)
}

func (c *client) buildIssueEndpoint(op string) string {
	return c.URL + "/billing/issue/" + op
}
