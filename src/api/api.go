package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sam-Sparxz/Portfolio/src/api/config"
	"github.com/Sam-Sparxz/Portfolio/src/api/data"
	"github.com/Sam-Sparxz/Portfolio/src/api/notify"
	"github.com/Sam-Sparxz/Portfolio/src/api/webserver"
	"github.com/Sam-Sparxz/Portfolio/src/logging"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

// run owns every resource it opens; failures return through the deferred
// cleanups instead of exiting past them.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := data.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer data.Close(db)
	if err := data.EnsureSchema(db); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter, closeLimiter := buildLimiter(ctx, cfg)
	defer closeLimiter()

	dispatcher := notify.NewDispatcher(cfg.NotifyTimeout, buildChannels(cfg)...)
	if chans := dispatcher.Channels(); len(chans) == 0 {
		logrus.Warn("no notification channels configured, messages will only be stored")
	} else {
		logrus.WithField("channels", chans).Info("notifications enabled")
	}

	router, err := webserver.New(webserver.Deps{
		Config:   cfg,
		Store:    data.NewMessageStore(db),
		Limiter:  limiter,
		Notifier: dispatcher,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.NotifyTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	if cfg.EnableSSL && !cfg.TLSConfigured() {
		logrus.Warn("ENABLE_SSL set without SSL_CERT and SSL_KEY, serving plain HTTP")
	}
	if cfg.TLSConfigured() {
		reloader, err := webserver.NewTLSReloader(cfg.SSLCert, cfg.SSLKey)
		if err != nil {
			return fmt.Errorf("tls: %w", err)
		}
		defer reloader.Close()
		httpSrv.TLSConfig = reloader.GetConfig()
	}

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if httpSrv.TLSConfig != nil {
			err = httpSrv.ListenAndServeTLS("", "")
		} else {
			err = httpSrv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	logrus.WithFields(logrus.Fields{
		"addr": cfg.Addr,
		"tls":  httpSrv.TLSConfig != nil,
	}).Infof("%s listening", config.ServiceName)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logrus.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	}

	shutCtx, cancelShut := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelShut()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown")
	}
	return nil
}

// buildLimiter prefers the shared redis counter and falls back to the
// in-process window when REDIS_URL is unset or unreachable.
func buildLimiter(ctx context.Context, cfg config.Config) (webserver.Limiter, func()) {
	if cfg.RedisURL != "" {
		rdb, err := data.OpenRedis(ctx, cfg.RedisURL)
		if err == nil {
			logrus.Info("rate limiting through redis")
			return webserver.NewRedisLimiter(rdb, cfg.RateLimit, cfg.RateWindow), func() { _ = rdb.Close() }
		}
		logrus.WithError(err).Warn("redis unavailable, rate limiting in memory")
	}
	rl := webserver.NewMemoryLimiter(cfg.RateLimit, cfg.RateWindow)
	return rl, func() { _ = rl.Close() }
}

func buildChannels(cfg config.Config) []notify.Channel {
	channels := []notify.Channel{notify.NewMailer(cfg.SMTP, cfg.NotifyTo)}
	if cfg.DiscordWebhookURL != "" {
		hook, err := notify.NewDiscordWebhook(cfg.DiscordWebhookURL, cfg.NotifyTimeout)
		if err != nil {
			logrus.WithError(err).Warn("discord notifications disabled")
		} else {
			channels = append(channels, hook)
		}
	}
	return channels
}
