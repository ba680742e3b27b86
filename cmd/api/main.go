package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quotewidget_backend/internal/config"
	"quotewidget_backend/internal/crm"
	apphttp "quotewidget_backend/internal/http"
	"quotewidget_backend/internal/http/router"
	"quotewidget_backend/internal/intake"
	"quotewidget_backend/internal/notify"
	"quotewidget_backend/internal/staticmap"
	"quotewidget_backend/internal/store"
	"quotewidget_backend/platform/logger"
	"quotewidget_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	submissions := store.NewSubmissionStore(cfg.SubmissionsFile())
	pending := store.NewNotificationStore(cfg.PendingNotificationsFile())
	artifacts := store.NewArtifactStore(cfg.SnapshotsDir(), cfg.PhotosDir())

	val := validator.New()

	// ========================================================================
	// Domain Services (Composition Root)
	// ========================================================================

	snapshots := staticmap.NewService(cfg, log)

	crmStore := crm.NewConfigStore(cfg.CRMConfigFile)
	crmSession := crm.NewSessionManager(crmStore, cfg.CRMBaseURL, log)
	crmService := crm.NewService(crmStore, crmSession, cfg.CRMBaseURL, log)

	var staffEmail notify.StaffEmailer
	if cfg.EmailEnabled {
		staffEmail = notify.NewEmailSender(notify.EmailConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			FromName:   cfg.EmailFromName,
			FromEmail:  cfg.EmailFrom,
			ToEmail:    cfg.NotifyEmail,
			CRMBaseURL: cfg.CRMBaseURL,
		})
	} else {
		log.Warn("staff email disabled; no SMTP credentials configured")
	}

	var webhook notify.WebhookPoster
	if cfg.ChatWebhookURL != "" {
		webhook = notify.NewWebhookSender(cfg.ChatWebhookURL, cfg.ChatMentionID, cfg.CRMBaseURL)
	}

	var wake notify.WakeSignaler
	if cfg.WakeGatewayURL != "" {
		wake = notify.NewWakeSender(cfg.WakeGatewayURL, cfg.WakeToken)
	}

	dispatcher := notify.NewDispatcher(staffEmail, webhook, wake, log)

	intakeModule := intake.NewModule(snapshots, crmService, dispatcher, artifacts, submissions, pending, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Env:    cfg.Env,
		Logger: log,
		Modules: []apphttp.Module{
			intakeModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
