// Command audit runs one audit pass from the terminal and prints the
// rendered report. It reuses the server's configuration but skips the HTTP
// layer, so it suits cron jobs and manual spot checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"docaudit/internal/audit/engine"
	"docaudit/internal/audit/models"
	"docaudit/internal/audit/ports"
	"docaudit/internal/audit/rules"
	"docaudit/internal/audit/service"
	"docaudit/internal/dispatch"
	"docaudit/internal/dispatch/bitrix"
	"docaudit/internal/dispatch/kafka"
	"docaudit/internal/dispatch/telegram"
	"docaudit/internal/fetcher/moysklad"
	"docaudit/internal/platform/config"
	"docaudit/internal/platform/logger"
	"docaudit/internal/report"
)

func main() {
	var (
		regionFlag   = flag.String("region", "", "region to audit: BY, RU or KZ")
		typesFlag    = flag.String("types", "", "comma-separated document types (default: all)")
		fromFlag     = flag.String("from", "", "period start, YYYY-MM-DD (default: yesterday)")
		toFlag       = flag.String("to", "", "period end, YYYY-MM-DD (default: yesterday)")
		dispatchFlag = flag.Bool("dispatch", false, "deliver the report to the configured sinks")
	)
	flag.Parse()

	if err := run(*regionFlag, *typesFlag, *fromFlag, *toFlag, *dispatchFlag); err != nil {
		fmt.Fprintln(os.Stderr, "audit failed:", err)
		os.Exit(1)
	}
}

func run(regionArg, typesArg, fromArg, toArg string, deliver bool) error {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	region, err := models.ParseRegion(regionArg)
	if err != nil {
		return err
	}

	var types []models.DocumentType
	if typesArg != "" {
		for _, raw := range strings.Split(typesArg, ",") {
			docType, err := models.ParseDocumentType(raw)
			if err != nil {
				return err
			}
			types = append(types, docType)
		}
	}

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	from, err := parseDay(fromArg, yesterday)
	if err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	to, err := parseDay(toArg, yesterday)
	if err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}

	creds := make(map[models.Region]moysklad.Credentials, len(cfg.MoySklad.Credentials))
	for r, account := range cfg.MoySklad.Credentials {
		creds[r] = moysklad.Credentials{Login: account.Login, Password: account.Password}
	}
	fetcherOpts := []moysklad.Option{moysklad.WithLogger(log)}
	if cfg.MoySklad.BaseURL != "" {
		fetcherOpts = append(fetcherOpts, moysklad.WithBaseURL(cfg.MoySklad.BaseURL))
	}
	fetcher, err := moysklad.New(creds, fetcherOpts...)
	if err != nil {
		return err
	}

	catalog := rules.NewCatalog(
		rules.WithContactCenter(cfg.Audit.ContactCenter),
		rules.WithMinPrice(cfg.Audit.MinPrice),
	)
	eng, err := engine.New(catalog, engine.WithLogger(log))
	if err != nil {
		return err
	}
	svc, err := service.New(fetcher, eng, service.WithLogger(log))
	if err != nil {
		return err
	}

	ctx := context.Background()
	rep, err := svc.Run(ctx, service.RunParams{
		Region: region,
		Types:  types,
		From:   from,
		To:     to,
	})
	if err != nil {
		return err
	}

	fmt.Println(report.Render(rep))

	if deliver {
		sinks, closeSinks, err := buildSinks(cfg.Dispatch)
		if err != nil {
			return err
		}
		defer closeSinks()
		orchestrator := dispatch.New(sinks, dispatch.WithLogger(log))
		for _, outcome := range orchestrator.Dispatch(ctx, rep) {
			if outcome.Err != nil {
				fmt.Fprintf(os.Stderr, "delivery to %s failed: %v\n", outcome.Sink, outcome.Err)
				continue
			}
			fmt.Printf("delivered to %s\n", outcome.Sink)
		}
	}
	return nil
}

func parseDay(arg, fallback string) (time.Time, error) {
	if arg == "" {
		arg = fallback
	}
	return time.Parse("2006-01-02", arg)
}

func buildSinks(cfg config.Dispatch) ([]ports.Sink, func(), error) {
	var sinks []ports.Sink
	closeFn := func() {}

	if cfg.TelegramToken != "" || cfg.TelegramChatID != "" {
		sink, err := telegram.New(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			return nil, closeFn, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.BitrixWebhook != "" || cfg.BitrixChatID != "" {
		sink, err := bitrix.New(cfg.BitrixWebhook, cfg.BitrixChatID)
		if err != nil {
			return nil, closeFn, err
		}
		sinks = append(sinks, sink)
	}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := kafka.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, closeFn, err
		}
		sinks = append(sinks, sink)
		closeFn = sink.Close
	}
	return sinks, closeFn, nil
}
