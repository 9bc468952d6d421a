// Package sheets prepares and checks the Excel workbooks exchanged with the
// import endpoints. Validation runs before any bytes hit the network so a
// malformed workbook never consumes a server-side import.
package sheets

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"github.com/fciautomation/payroll-admin-client/internal/model"
)

const supportedFileFormat = ".xlsx"

// Header row the employee import endpoint expects, in order.
var employeeHeaders = []string{
	"Member ID", "Full Name", "UAN", "IP Number", "Bank A/c", "IFSC", "Category",
}

// Header row of the payroll entry template served by the backend.
var entryHeaders = []string{
	"Member ID", "Full Name", "Days Worked", "Wages Earned", "Advance Deduction",
}

// SupportedWorkbook reports whether the file name carries the only format
// the import endpoints accept.
func SupportedWorkbook(fileName string) bool {
	return strings.HasSuffix(strings.ToLower(fileName), supportedFileFormat)
}

// BuildEmployeeWorkbook renders employees into an import-ready workbook.
func BuildEmployeeWorkbook(ctx context.Context, employees []model.Employee) ([]byte, error) {
	contextLogger := log.WithContext(ctx)
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	_ = f.SetColWidth(sheet, "A", "G", 20)
	_ = f.SetColWidth(sheet, "B", "B", 30)

	for i, header := range employeeHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			contextLogger.WithError(err).Error("failed to write workbook header")
			return nil, err
		}
	}

	for row, emp := range employees {
		values := []interface{}{
			emp.MemberID, emp.FullName, emp.UANNumber, emp.IPNumber,
			emp.BankAccountNo, emp.IFSCCode, emp.Category,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				contextLogger.WithError(err).Error("failed to write workbook row")
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		contextLogger.WithError(err).Error("failed to serialize workbook")
		return nil, err
	}
	return buf.Bytes(), nil
}

// ValidateEmployeeWorkbook checks that the uploaded bytes open as a workbook
// and carry the expected header row.
func ValidateEmployeeWorkbook(ctx context.Context, fileName string, data []byte) error {
	return validateHeaders(ctx, fileName, data, employeeHeaders)
}

// ValidateEntryWorkbook checks a filled payroll entry template before it is
// sent to the import endpoint.
func ValidateEntryWorkbook(ctx context.Context, fileName string, data []byte) error {
	return validateHeaders(ctx, fileName, data, entryHeaders)
}

func validateHeaders(ctx context.Context, fileName string, data []byte, expected []string) error {
	contextLogger := log.WithContext(ctx)

	if !SupportedWorkbook(fileName) {
		return fmt.Errorf("unsupported file %q: only %s files can be imported", fileName, supportedFileFormat)
	}

	excelFile, err := xlsx.OpenBinary(data)
	if err != nil {
		contextLogger.WithError(err).Error("Failed to convert bytes to excel file")
		return fmt.Errorf("could not open %q as a workbook: %v", fileName, err)
	}

	if len(excelFile.Sheets) == 0 || len(excelFile.Sheets[0].Rows) == 0 {
		return fmt.Errorf("workbook %q has no header row", fileName)
	}

	headerRow := excelFile.Sheets[0].Rows[0]
	for i, want := range expected {
		if i >= len(headerRow.Cells) {
			return fmt.Errorf("workbook %q is missing column %q", fileName, want)
		}
		got := strings.TrimSpace(headerRow.Cells[i].String())
		if !strings.EqualFold(got, want) {
			return fmt.Errorf("workbook %q column %d: expected header %q, found %q", fileName, i+1, want, got)
		}
	}
	return nil
}
