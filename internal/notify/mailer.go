package notify

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/wneessen/go-mail"

	"hrreport/internal/config"
	"hrreport/internal/dataprocessing"
	apperrors "hrreport/internal/errors"
	"hrreport/internal/validation"
)

// Sender delivers composed messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// NewSMTPClient builds a go-mail client from cfg
func NewSMTPClient(cfg config.MailConfig) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPolicy(tlsPolicy(cfg.TLS)),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid SMTP settings", err)
	}
	return client, nil
}

func tlsPolicy(s string) mail.TLSPolicy {
	switch s {
	case "mandatory":
		return mail.TLSMandatory
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSOpportunistic
	}
}

// Mailer sends the report and error emails. Nothing is retried and delivery
// is not confirmed beyond the SMTP server accepting the message.
type Mailer struct {
	cfg       config.MailConfig
	sender    Sender
	validator *validation.FileValidator
	logger    *slog.Logger
	now       func() time.Time
}

// NewMailer creates a Mailer. sender may be nil when cfg.Enabled is false.
func NewMailer(cfg config.MailConfig, sender Sender, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		cfg:       cfg,
		sender:    sender,
		validator: validation.NewFileValidator(logger),
		logger:    logger,
		now:       time.Now,
	}
}

// SendReport emails the report with insights and the given attachments.
// Every attachment must exist.
func (m *Mailer) SendReport(ctx context.Context, insights *dataprocessing.Insights, attachments ...string) error {
	if err := m.validator.ValidateFiles(attachments...); err != nil {
		return err
	}

	body, err := RenderReportBody(ReportData{
		RecipientName: m.cfg.RecipientName,
		SenderName:    m.cfg.SenderName,
		RepositoryURL: m.cfg.RepositoryURL,
		Insights:      insights,
		Generated:     timestamp(m.now()),
	})
	if err != nil {
		return apperrors.NewNotificationError("failed to compose report email", err)
	}

	msg, err := m.compose(m.cfg.To, m.cfg.Subject, body)
	if err != nil {
		return err
	}
	for _, path := range attachments {
		msg.AttachFile(path, mail.WithFileName(filepath.Base(path)))
	}

	return m.send(ctx, "report", msg)
}

// SendError emails errText to the error recipient
func (m *Mailer) SendError(ctx context.Context, runID string, attempts int, errText string) error {
	body, err := RenderErrorBody(ErrorData{
		RunID:     runID,
		Attempts:  attempts,
		Message:   errText,
		Generated: timestamp(m.now()),
	})
	if err != nil {
		return apperrors.NewNotificationError("failed to compose error email", err)
	}

	to := m.cfg.ErrorTo
	if to == "" {
		to = m.cfg.From
	}
	msg, err := m.compose(to, m.cfg.ErrorSubject, body)
	if err != nil {
		return err
	}
	return m.send(ctx, "error", msg)
}

func (m *Mailer) compose(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	var err error
	if m.cfg.SenderName != "" {
		err = msg.FromFormat(m.cfg.SenderName, m.cfg.From)
	} else {
		err = msg.From(m.cfg.From)
	}
	if err != nil {
		return nil, apperrors.NewNotificationError("invalid sender address", err).WithContext("from", m.cfg.From)
	}
	if err := msg.To(to); err != nil {
		return nil, apperrors.NewNotificationError("invalid recipient address", err).WithContext("to", to)
	}

	msg.Subject(subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

func (m *Mailer) send(ctx context.Context, kind string, msg *mail.Msg) error {
	if !m.cfg.Enabled || m.sender == nil {
		m.logger.WarnContext(ctx, "Mail disabled, message not sent", slog.String("kind", kind))
		return nil
	}

	sendCtx := ctx
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	if err := m.sender.DialAndSendWithContext(sendCtx, msg); err != nil {
		m.logger.ErrorContext(ctx, "Failed to send email",
			slog.String("kind", kind),
			slog.String("host", m.cfg.Host),
			slog.String("error", err.Error()))
		return apperrors.NewNotificationError(fmt.Sprintf("failed to send %s email", kind), err)
	}

	m.logger.InfoContext(ctx, "Email sent",
		slog.String("kind", kind),
		slog.Int("attachments", len(msg.GetAttachments())))
	return nil
}
