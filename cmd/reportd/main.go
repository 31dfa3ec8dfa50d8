package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"bondradar-backend/lib/configutil"
	"bondradar-backend/lib/scrapers/smartlab"
	"bondradar-backend/lib/serviceutil"
	"bondradar-backend/lib/telemetry"
	"bondradar-backend/lib/timezone"
	"bondradar-backend/services/bonds"
	"bondradar-backend/services/report"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// five field cron expression, evaluated in MSK
	Schedule   string             `json:"schedule"`
	Count      int                `json:"count"`
	OutputPath string             `json:"output_path"`
	Smtp       *report.SmtpConfig `json:"smtp"`
}

func main() {
	ctx := serviceutil.SignalContext()

	// every field has a workable default, config.json5 is optional
	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Schedule == "" {
		config.Schedule = "0 10 * * *"
	}

	t, err := telemetry.SetupFromEnv(ctx, "reportd")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	client, err := smartlab.NewClient(smartlab.ClientOptions{})
	if err != nil {
		serviceutil.Fatal("failed to create listing client", err)
	}

	svc := report.NewService(
		bonds.NewService(
			bonds.ListingFetch(client, smartlab.DefaultMatchers(), timezone.Now),
			bonds.Options{},
		),
		report.Options{
			Count:      config.Count,
			OutputPath: config.OutputPath,
			Smtp:       config.Smtp,
		},
	)

	run := func() {
		err := svc.Run(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "report run failed", "err", err)
		}
	}

	// a fresh deployment should produce a report right away instead of
	// waiting for the first scheduled slot
	run()

	scheduler := cron.New(cron.WithLocation(timezone.Location))
	_, err = scheduler.AddFunc(config.Schedule, run)
	if err != nil {
		serviceutil.Fatal("failed to schedule report runs", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	<-ctx.Done()
}
