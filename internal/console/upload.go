package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/model"
)

// Document types and their sub types, as the compliance pages group them.
var documentSubTypes = map[string][]string{
	"ESI": {"Contribution Report", "ESIC"},
	"EPF": {"Contribution Report", "ECR"},
}

// UploadPage manages compliance documents. One logical slot exists per
// (type, subType, period); uploading into an occupied slot requires the
// user to explicitly ask for a replacement.
type UploadPage struct {
	backend api.ClientInterface
	dialog  Dialog
	out     io.Writer

	PeriodID  string
	Documents []model.UploadDocument
}

func NewUploadPage(backend api.ClientInterface, dialog Dialog, out io.Writer) *UploadPage {
	return &UploadPage{backend: backend, dialog: dialog, out: out}
}

func (p *UploadPage) Activate(ctx context.Context) {
	p.Load(ctx, p.PeriodID)
}

// Load fetches the documents for a period (all periods when empty).
func (p *UploadPage) Load(ctx context.Context, periodID string) {
	p.PeriodID = periodID
	docs, err := p.backend.Documents(ctx, periodID)
	if err != nil {
		p.dialog.Alert("Error", "Failed to load docs: "+api.ErrorMessage(err))
		return
	}
	p.Documents = docs
	for _, doc := range docs {
		fmt.Fprintf(p.out, "  %s - %s: %s (%s)\n", doc.Type, doc.SubType, doc.FileName, doc.UploadDate)
	}
}

// Upload stores a PDF into its slot. An occupied slot blocks the upload
// unless the user confirms the replacement.
func (p *UploadPage) Upload(ctx context.Context, req api.UploadDocumentRequest) {
	if !strings.HasSuffix(strings.ToLower(req.FileName), ".pdf") {
		p.dialog.Alert("Invalid File", "Only PDF files can be uploaded.")
		return
	}
	if !validSubType(req.Type, req.SubType) {
		p.dialog.Alert("Invalid File", fmt.Sprintf("Unknown document slot %s/%s", req.Type, req.SubType))
		return
	}

	if existing := model.FindDocumentSlot(p.Documents, req.Type, req.SubType); existing != nil {
		if !p.dialog.Confirm("File Exists",
			fmt.Sprintf("%q is already uploaded for %s/%s. Replace it?", existing.FileName, req.Type, req.SubType)) {
			return
		}
	}

	doc, err := p.backend.UploadDocument(ctx, req)
	if err != nil {
		p.dialog.Alert("Error", "Upload failed: "+api.ErrorMessage(err))
		return
	}
	p.dialog.Alert("Success", fmt.Sprintf("Uploaded %s", doc.FileName))
	p.Load(ctx, req.PeriodID)
}

// Download writes a stored document to the given directory.
func (p *UploadPage) Download(ctx context.Context, id, dir string) {
	file, err := p.backend.DownloadDocument(ctx, id)
	if err != nil {
		p.dialog.Alert("Error", "Download failed: "+api.ErrorMessage(err))
		return
	}
	path, err := saveFile(dir, file)
	if err != nil {
		p.dialog.Alert("Error", err.Error())
		return
	}
	fmt.Fprintln(p.out, "Saved document to", path)
}

func validSubType(docType, subType string) bool {
	for _, st := range documentSubTypes[docType] {
		if st == subType {
			return true
		}
	}
	return false
}
