package sheets

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/fciautomation/payroll-admin-client/internal/model"
)

func TestSupportedWorkbook(t *testing.T) {
	require.True(t, SupportedWorkbook("employees.xlsx"))
	require.True(t, SupportedWorkbook("EMPLOYEES.XLSX"))
	require.False(t, SupportedWorkbook("employees.xls"))
	require.False(t, SupportedWorkbook("employees.csv"))
	require.False(t, SupportedWorkbook("employees"))
}

func TestBuildEmployeeWorkbookRoundTrip(t *testing.T) {
	ctx := context.Background()
	employees := []model.Employee{
		{
			MemberID:      "M001",
			FullName:      "Ravi Kumar",
			UANNumber:     "100200300400",
			IPNumber:      "9900112233",
			BankAccountNo: "30012345678",
			IFSCCode:      "SBIN0001234",
			Category:      model.CategoryHandler,
		},
		{
			MemberID: "M002",
			FullName: "Suresh Babu",
			Category: model.CategoryCasual,
		},
	}

	data, err := BuildEmployeeWorkbook(ctx, employees)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// a built workbook always passes its own validation
	require.NoError(t, ValidateEmployeeWorkbook(ctx, "employees.xlsx", data))

	excelFile, err := xlsx.OpenBinary(data)
	require.NoError(t, err)
	rows := excelFile.Sheets[0].Rows
	require.Len(t, rows, 3)
	require.Equal(t, "M001", rows[1].Cells[0].String())
	require.Equal(t, "Ravi Kumar", rows[1].Cells[1].String())
	require.Equal(t, "HL", rows[1].Cells[6].String())
	require.Equal(t, "M002", rows[2].Cells[0].String())
}

func TestValidateEmployeeWorkbook(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong-extension", func(t *testing.T) {
		err := ValidateEmployeeWorkbook(ctx, "employees.csv", []byte("Member ID,Full Name"))
		require.ErrorContains(t, err, "only .xlsx files")
	})

	t.Run("not-a-workbook", func(t *testing.T) {
		err := ValidateEmployeeWorkbook(ctx, "employees.xlsx", []byte("not excel bytes"))
		require.ErrorContains(t, err, "could not open")
	})

	t.Run("wrong-header", func(t *testing.T) {
		data := buildWorkbook(t, []string{"Member ID", "Name", "UAN", "IP Number", "Bank A/c", "IFSC", "Category"})
		err := ValidateEmployeeWorkbook(ctx, "employees.xlsx", data)
		require.ErrorContains(t, err, `expected header "Full Name"`)
	})

	t.Run("missing-column", func(t *testing.T) {
		data := buildWorkbook(t, []string{"Member ID", "Full Name"})
		err := ValidateEmployeeWorkbook(ctx, "employees.xlsx", data)
		require.ErrorContains(t, err, "missing column")
	})

	t.Run("header-case-insensitive", func(t *testing.T) {
		data := buildWorkbook(t, []string{"member id", "full name", "uan", "ip number", "bank a/c", "ifsc", "category"})
		require.NoError(t, ValidateEmployeeWorkbook(ctx, "employees.xlsx", data))
	})
}

func TestValidateEntryWorkbook(t *testing.T) {
	ctx := context.Background()

	data := buildWorkbook(t, entryHeaders)
	require.NoError(t, ValidateEntryWorkbook(ctx, "entries.xlsx", data))

	bad := buildWorkbook(t, []string{"Member ID", "Full Name", "Days", "Wages Earned", "Advance Deduction"})
	require.ErrorContains(t, ValidateEntryWorkbook(ctx, "entries.xlsx", bad), `expected header "Days Worked"`)
}

func buildWorkbook(t *testing.T, headers []string) []byte {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}
