package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	"github.com/stretchr/testify/require"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/model"
)

type mockSES struct {
	sesiface.SESAPI
	input *ses.SendRawEmailInput
	err   error
}

func (m *mockSES) SendRawEmail(input *ses.SendRawEmailInput) (*ses.SendRawEmailOutput, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendRawEmailOutput{}, nil
}

func TestEnabled(t *testing.T) {
	var nilNotifier *Notifier
	require.False(t, nilNotifier.Enabled())
	require.False(t, New(&mockSES{}, "", "noreply@example.com").Enabled())
	require.True(t, New(&mockSES{}, "payroll@example.com", "noreply@example.com").Enabled())
}

func TestSendFinalizeSummary(t *testing.T) {
	sesClient := &mockSES{}
	notifier := New(sesClient, "payroll@example.com, audit@example.com", "noreply@example.com")

	period := &model.PayrollPeriod{ID: "period-1", Month: 7, Year: 2026, Status: model.PeriodClosed}
	require.NoError(t, notifier.SendFinalizeSummary(context.Background(), period, 42))

	require.NotNil(t, sesClient.input)
	require.Equal(t, "noreply@example.com", *sesClient.input.Source)
	require.Len(t, sesClient.input.Destinations, 2)
	require.Equal(t, "audit@example.com", *sesClient.input.Destinations[1])

	raw := string(sesClient.input.RawMessage.Data)
	require.Contains(t, raw, "Payroll period 07/2026 finalized")
	require.Contains(t, raw, "42 entries")
}

func TestSendReportAttachesFile(t *testing.T) {
	sesClient := &mockSES{}
	notifier := New(sesClient, "payroll@example.com", "noreply@example.com")

	period := &model.PayrollPeriod{ID: "period-1", Month: 7, Year: 2026}
	file := &api.File{Name: "wage_register.pdf", Data: []byte("pdf-bytes")}
	require.NoError(t, notifier.SendReport(context.Background(), period, file))

	raw := string(sesClient.input.RawMessage.Data)
	require.Contains(t, raw, "wage_register.pdf")
	require.Contains(t, raw, "Content-Disposition: attachment")
}

func TestSendWithoutRecipientIsNoOp(t *testing.T) {
	sesClient := &mockSES{}
	notifier := New(sesClient, "", "noreply@example.com")

	period := &model.PayrollPeriod{Month: 7, Year: 2026}
	require.NoError(t, notifier.SendFinalizeSummary(context.Background(), period, 1))
	require.Nil(t, sesClient.input)
}

func TestSendFailurePropagates(t *testing.T) {
	sesClient := &mockSES{err: errors.New("ses throttled")}
	notifier := New(sesClient, "payroll@example.com", "noreply@example.com")

	period := &model.PayrollPeriod{Month: 7, Year: 2026}
	err := notifier.SendFinalizeSummary(context.Background(), period, 1)
	require.ErrorContains(t, err, "ses throttled")
}
