// Package notify emails downloaded report files and period finalize
// summaries to the configured recipients via SES.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ses"
	"github.com/aws/aws-sdk-go/service/ses/sesiface"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/fciautomation/payroll-admin-client/internal/api"
	"github.com/fciautomation/payroll-admin-client/internal/model"
)

type Notifier struct {
	emailClient sesiface.SESAPI
	emailTo     string
	emailFrom   string
}

func New(emailClient sesiface.SESAPI, emailTo, emailFrom string) *Notifier {
	return &Notifier{
		emailClient: emailClient,
		emailTo:     emailTo,
		emailFrom:   emailFrom,
	}
}

// Enabled reports whether a recipient is configured. Email is optional;
// with no recipient every send is a silent no-op.
func (n *Notifier) Enabled() bool {
	return n != nil && n.emailTo != ""
}

// SendReport emails a downloaded report file as an attachment.
func (n *Notifier) SendReport(ctx context.Context, period *model.PayrollPeriod, file *api.File) error {
	if !n.Enabled() {
		return nil
	}
	subject := fmt.Sprintf("Report: %s (%02d/%d)", file.Name, period.Month, period.Year)
	body := fmt.Sprintf("Attached: %s for payroll period %02d/%d.", file.Name, period.Month, period.Year)
	return n.send(ctx, subject, body, file)
}

// SendFinalizeSummary emails a plain-text notice that a period was closed.
func (n *Notifier) SendFinalizeSummary(ctx context.Context, period *model.PayrollPeriod, entryCount int) error {
	if !n.Enabled() {
		return nil
	}
	subject := fmt.Sprintf("Payroll period %02d/%d finalized", period.Month, period.Year)
	body := fmt.Sprintf("Payroll period %02d/%d was finalized with %d entries. The period is now %s.",
		period.Month, period.Year, entryCount, period.Status)
	return n.send(ctx, subject, body, nil)
}

func (n *Notifier) send(ctx context.Context, subject, body string, attachment *api.File) error {
	contextLogger := log.WithContext(ctx)

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.emailFrom)
	msg.SetHeader("To", n.emailTo)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if attachment != nil {
		msg.Attach(attachment.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachment.Data)
			return err
		}))
	}

	var emailRaw bytes.Buffer
	if _, err := msg.WriteTo(&emailRaw); err != nil {
		contextLogger.WithError(err).Error("Error when writing email data")
		return err
	}

	message := ses.RawMessage{Data: emailRaw.Bytes()}
	emailParams := ses.SendRawEmailInput{
		Source:     aws.String(n.emailFrom),
		RawMessage: &message,
	}
	emailParams.SetDestinations(emailRecipients(n.emailTo))

	if _, err := n.emailClient.SendRawEmail(&emailParams); err != nil {
		contextLogger.WithError(err).Error("Error when sending email")
		return err
	}
	contextLogger.Info("notification email sent: ", subject)
	return nil
}

func emailRecipients(emailTo string) []*string {
	var recipients []*string
	for _, recipient := range strings.Split(emailTo, ",") {
		recipients = append(recipients, aws.String(strings.TrimSpace(recipient)))
	}
	return recipients
}
