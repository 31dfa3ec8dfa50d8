// Package report builds the plain-text top bond report and delivers it
// to a file and, optionally, over SMTP.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"strings"
	"time"

	"bondradar-backend/lib/telemetry"
	"bondradar-backend/lib/timezone"
	"bondradar-backend/services/bonds"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("bondradar.services.report")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

type Options struct {
	// how many bonds the report covers, defaults to 10
	Count int
	// where the report file lands, defaults to bonds_report.txt
	OutputPath string
	// nil disables mail delivery
	Smtp *SmtpConfig
	// defaults to timezone.Now
	Now func() time.Time
}

type Service struct {
	bonds  *bonds.Service
	config Options
}

func NewService(bondsService *bonds.Service, opts Options) Service {
	if opts.Count == 0 {
		opts.Count = 10
	}
	if opts.OutputPath == "" {
		opts.OutputPath = "bonds_report.txt"
	}
	if opts.Now == nil {
		opts.Now = timezone.Now
	}
	return Service{
		bonds:  bondsService,
		config: opts,
	}
}

// Build renders the full report text for the current snapshot.
func (s Service) Build(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "Build")
	defer span.End()

	top, err := s.bonds.Top(ctx, s.config.Count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load bonds")
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d bonds by yield to maturity\n", len(top))
	b.WriteString(strings.Repeat("=", 80) + "\n")
	b.WriteString(bonds.PlainTable(top))
	b.WriteString("\n\nData from smart-lab.ru")
	fmt.Fprintf(&b, "\nGenerated at %s\n", s.config.Now().Format("2006-01-02 15:04:05"))

	return b.String(), nil
}

// Save writes the report durably to the configured path.
func (s Service) Save(report string) error {
	err := os.WriteFile(s.config.OutputPath, []byte(report), 0o644)
	if err != nil {
		return fmt.Errorf("save report to %s: %w", s.config.OutputPath, err)
	}
	return nil
}

// Email mails the report to the configured recipients. No-op when mail
// delivery isn't configured.
func (s Service) Email(ctx context.Context, report string) error {
	if s.config.Smtp == nil {
		return nil
	}
	_, span := tracer.Start(ctx, "Email")
	defer span.End()

	cfg := s.config.Smtp
	mail := email.NewEmail()
	mail.From = cfg.EmailAddress
	mail.To = cfg.Recipients
	mail.Subject = fmt.Sprintf("Bond yield report %s", s.config.Now().Format("2006-01-02"))
	mail.Text = []byte(report)

	err := mail.Send(
		fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
		smtp.PlainAuth("", cfg.EmailAddress, cfg.Password, cfg.Server),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send report email")
		return fmt.Errorf("email report: %w", err)
	}
	return nil
}

// Run executes one report cycle. Sink failures are logged and absorbed so
// a scheduler can keep cycling; only the inability to obtain data at all
// is reported upward.
func (s Service) Run(ctx context.Context) error {
	report, err := s.Build(ctx)
	if err != nil {
		return err
	}

	err = s.Save(report)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save report", "path", s.config.OutputPath, "err", err)
	} else {
		slog.InfoContext(ctx, "report saved", "path", s.config.OutputPath)
	}

	err = s.Email(ctx, report)
	if err != nil {
		slog.ErrorContext(ctx, "failed to email report", "err", err)
	}

	return nil
}
