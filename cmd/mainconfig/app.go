package mainconfig

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/agency-leads/internal/analytics"
	"github.com/wolfman30/agency-leads/internal/api/router"
	appconfig "github.com/wolfman30/agency-leads/internal/config"
	httpmiddleware "github.com/wolfman30/agency-leads/internal/http/middleware"
	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/internal/notify"
	"github.com/wolfman30/agency-leads/internal/observability/metrics"
	"github.com/wolfman30/agency-leads/internal/ratelimit"
	"github.com/wolfman30/agency-leads/internal/sheets"
	"github.com/wolfman30/agency-leads/pkg/logging"
	"google.golang.org/api/option"
)

// App is the fully wired lead pipeline shared by the HTTP server and the
// Lambda entrypoint.
type App struct {
	Handler  http.Handler
	Throttle *httpmiddleware.Throttle

	closers []func()
}

// Close releases connections opened while building the app.
func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// BuildApp wires limiter, sinks, tracker, metrics and router from cfg.
func BuildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*App, error) {
	app := &App{}

	limiter, closeLimiter, err := SetupLimiter(ctx, cfg, logger.Component("ratelimit"))
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeLimiter)

	sender, err := SetupEmailSender(ctx, cfg, logger.Component("notify"))
	if err != nil {
		app.Close()
		return nil, err
	}
	if sender == nil {
		logger.Warn("no email provider configured; lead submissions will be rejected", "email_provider", cfg.EmailProvider)
	}
	notifier := notify.NewLeadNotifier(sender, notify.LeadNotifierConfig{
		AdminEmail: cfg.AdminEmail,
		Provider:   cfg.EmailProvider,
	}, logger.Component("notify"))

	store, err := SetupLeadStore(ctx, cfg, logger.Component("sheets"))
	if err != nil {
		app.Close()
		return nil, err
	}

	metricsHandler, leadMetrics := SetupLeadMetrics()

	service := leads.NewService(leads.ServiceConfig{
		Limiter:     limiter,
		Sinks:       []leads.Sink{notifier, store},
		Tracker:     SetupTracker(cfg, logger.Component("analytics")),
		Metrics:     leadMetrics,
		SinkTimeout: cfg.SinkTimeout,
		Logger:      logger.Component("leads"),
	})

	app.Throttle = httpmiddleware.NewThrottle(cfg.RequestRatePerSec, cfg.RequestBurst)
	app.Handler = router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(service, logger.Component("http")),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Throttle:           app.Throttle,
	})
	return app, nil
}

// SetupLimiter picks the cooldown backend. The returned func releases any
// connection it opened.
func SetupLimiter(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (ratelimit.Limiter, func(), error) {
	switch cfg.RateLimitBackend {
	case "redis":
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(opts)
		logger.Info("using redis cooldown store", "addr", cfg.RedisAddr, "tls", cfg.RedisTLS)
		return ratelimit.NewRedisStore(rdb, cfg.LeadCooldown, "", logger), func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}, nil
	case "dynamodb":
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("load aws config: %w", err)
		}
		logger.Info("using dynamodb cooldown store", "table", cfg.CooldownTable)
		return ratelimit.NewDynamoStore(NewDynamoClient(awsCfg, cfg), cfg.CooldownTable, cfg.LeadCooldown, logger), func() {}, nil
	case "memory", "":
		return ratelimit.NewMemoryStore(cfg.LeadCooldown), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", cfg.RateLimitBackend)
	}
}

// SetupEmailSender returns nil (and no error) when the selected provider has
// no credentials.
func SetupEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, error) {
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return notify.NewSESSender(NewSESClient(awsCfg, cfg), notify.SESConfig{
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, logger), nil
	case "stub":
		return notify.NewStubEmailSender(logger), nil
	case "sendgrid", "":
		sg := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, logger)
		if sg == nil {
			return nil, nil
		}
		return sg, nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

func SetupLeadStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (leads.Sink, error) {
	switch cfg.LeadStoreBackend {
	case "sheets_api":
		var opts []option.ClientOption
		if cfg.SheetsCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.SheetsCredentialsFile))
		}
		store, err := sheets.NewAPIStore(ctx, sheets.APIConfig{
			SpreadsheetID: cfg.SheetsSpreadsheetID,
			Range:         cfg.SheetsRange,
		}, logger, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "webhook", "":
		if cfg.SheetWebAppURL != "" && !sheets.ValidURL(cfg.SheetWebAppURL) {
			logger.Warn("SHEET_WEBAPP_URL does not look like an Apps Script web app; sheet deliveries will fail")
		}
		return sheets.NewWebhookStore(cfg.SheetWebAppURL, sheets.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown LEAD_STORE_BACKEND %q", cfg.LeadStoreBackend)
	}
}

func SetupTracker(cfg *appconfig.Config, logger *logging.Logger) leads.EventTracker {
	ga := analytics.NewGA4Client(analytics.GA4Config{
		MeasurementID: cfg.GAMeasurementID,
		APISecret:     cfg.GAAPISecret,
	}, nil, logger)
	if ga == nil {
		return nil
	}
	return ga
}

func SetupLeadMetrics() (http.Handler, *metrics.LeadMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewLeadMetrics(reg)
}

// StartThrottleCleanup evicts idle throttle entries every interval until the
// returned func is called.
func StartThrottleCleanup(t *httpmiddleware.Throttle, every time.Duration) func() {
	ticker := time.NewTicker(every)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				t.Cleanup()
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
