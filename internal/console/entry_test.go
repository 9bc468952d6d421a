package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fciautomation/payroll-admin-client/internal/model"
)

func openPeriod() *model.PayrollPeriod {
	return &model.PayrollPeriod{ID: "period-1", Month: 7, Year: 2026, Status: model.PeriodOpen}
}

func TestEntryActivateSortsByMemberID(t *testing.T) {
	ctx := context.Background()
	mockClient := new(MockBackendClient)
	mockClient.On("Period", ctx, "period-1").Return(openPeriod(), nil)
	mockClient.On("PeriodEntries", ctx, "period-1").Return([]model.PayrollEntry{
		{ID: "entry-2", Employee: model.EmployeeRef{MemberID: "M002"}},
		{ID: "entry-1", Employee: model.EmployeeRef{MemberID: "M001"}},
	}, nil)

	page := NewEntryPage(mockClient, &recordingDialog{}, &bytes.Buffer{}, nil)
	page.Activate(ctx, "period-1")

	require.Equal(t, "M001", page.Entries[0].Employee.MemberID)
	require.Equal(t, "M002", page.Entries[1].Employee.MemberID)
}

func TestEntrySaveAndCalculate(t *testing.T) {
	ctx := context.Background()
	entries := []model.PayrollEntry{
		{ID: "entry-1", Employee: model.EmployeeRef{MemberID: "M001"}, WagesEarned: 15000},
	}
	calculated := []model.PayrollEntry{
		{ID: "entry-1", Employee: model.EmployeeRef{MemberID: "M001"}, WagesEarned: 15000,
			EPFMemberShare: 1800, ESIMemberShare: 112.50, NetPayable: 13087.50},
	}

	mockClient := new(MockBackendClient)
	mockClient.On("SaveEntries", ctx, entries).Return(calculated, nil)

	dialog := &recordingDialog{}
	page := NewEntryPage(mockClient, dialog, &bytes.Buffer{}, nil)
	page.Entries = entries

	require.NoError(t, page.SaveAndCalculate(ctx))
	require.Equal(t, calculated, page.Entries)
	require.Contains(t, dialog.alerts, "Success: Saved & Calculated Successfully")
}

func TestEntryFinalize(t *testing.T) {
	ctx := context.Background()
	entries := []model.PayrollEntry{{ID: "entry-1", Employee: model.EmployeeRef{MemberID: "M001"}}}

	mockClient := new(MockBackendClient)
	mockClient.On("SaveEntries", ctx, entries).Return(entries, nil)
	mockClient.On("ClosePeriod", ctx, "period-1").
		Return(&model.PayrollPeriod{ID: "period-1", Month: 7, Year: 2026, Status: model.PeriodClosed}, nil)

	dialog := &recordingDialog{answer: true}
	page := NewEntryPage(mockClient, dialog, &bytes.Buffer{}, nil)
	page.Period = openPeriod()
	page.Entries = entries

	page.Finalize(ctx)

	require.Equal(t, model.PeriodClosed, page.Period.Status)
	require.Contains(t, dialog.alerts, "Success: Period 07/2026 is now CLOSED")
	mockClient.AssertExpectations(t)
}

func TestEntryFinalizeDeclined(t *testing.T) {
	mockClient := new(MockBackendClient)
	dialog := &recordingDialog{answer: false}
	page := NewEntryPage(mockClient, dialog, &bytes.Buffer{}, nil)
	page.Period = openPeriod()

	page.Finalize(context.Background())

	mockClient.AssertNotCalled(t, "SaveEntries", mock.Anything, mock.Anything)
	mockClient.AssertNotCalled(t, "ClosePeriod", mock.Anything, mock.Anything)
}

func TestEntryReopen(t *testing.T) {
	ctx := context.Background()
	mockClient := new(MockBackendClient)
	mockClient.On("ReopenPeriod", ctx, "period-1").
		Return(&model.PayrollPeriod{ID: "period-1", Month: 7, Year: 2026, Status: model.PeriodOpen}, nil)

	page := NewEntryPage(mockClient, &recordingDialog{}, &bytes.Buffer{}, nil)
	page.Period = &model.PayrollPeriod{ID: "period-1", Month: 7, Year: 2026, Status: model.PeriodClosed}

	page.Reopen(ctx)
	require.Equal(t, model.PeriodOpen, page.Period.Status)
}

func TestEntryImportWorkbookValidatesLocally(t *testing.T) {
	mockClient := new(MockBackendClient)
	dialog := &recordingDialog{}
	page := NewEntryPage(mockClient, dialog, &bytes.Buffer{}, nil)
	page.Period = openPeriod()

	page.ImportWorkbook(context.Background(), "entries.csv", []byte("not a workbook"))

	require.Len(t, dialog.alerts, 1)
	require.Contains(t, dialog.alerts[0], "Invalid File")
	mockClient.AssertNotCalled(t, "ImportEntries", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
