// Package server wires the site's services, middleware and routes together
// and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"ops-web/ops-web-backend/internal/analytics"
	"ops-web/ops-web-backend/internal/auth"
	"ops-web/ops-web-backend/internal/bubble"
	"ops-web/ops-web-backend/internal/company"
	"ops-web/ops-web-backend/internal/config"
	"ops-web/ops-web-backend/internal/middleware"
	"ops-web/ops-web-backend/internal/observability"
	"ops-web/ops-web-backend/internal/onboarding"
	"ops-web/ops-web-backend/internal/site"
	"ops-web/ops-web-backend/internal/sms"
	"ops-web/ops-web-backend/internal/tutorial"
	"ops-web/ops-web-backend/internal/variant"
	"ops-web/ops-web-backend/internal/visitor"
	"ops-web/ops-web-backend/pkg/storage"
)

// Server owns every long-lived component of the site
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	router  *gin.Engine
	db      *gorm.DB
	metrics *observability.Metrics

	live      *tutorial.LiveHub
	tutorials *tutorial.Service
	recorder  *analytics.Recorder
	rollup    *analytics.Rollup
	limiter   *middleware.RateLimiter

	aws *aws.Config
}

// New builds the server. PostgreSQL is used when a database host is
// configured, otherwise state is kept in memory.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
	}

	progressRepo, analyticsRepo, err := s.repositories()
	if err != nil {
		return nil, err
	}

	texts, emails, err := s.senders(ctx)
	if err != nil {
		return nil, err
	}
	texts = s.metrics.InstrumentSender(texts)
	emails = s.metrics.InstrumentEmail(emails)

	identity, err := visitor.NewIdentity(cfg.Security.CookieSecret, cfg.Security.CookieMaxAge, cfg.Security.SecureCookie, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create visitor identity: %w", err)
	}

	backend := bubble.NewClient(bubble.Config{
		BaseURL: cfg.Bubble.BaseURL,
		APIKey:  cfg.Bubble.APIKey,
		Timeout: cfg.Bubble.Timeout,
	}, logger, bubble.WithCallObserver(s.metrics.ObserveBackend))

	s.recorder = analytics.NewRecorder(analyticsRepo, analytics.RecorderConfig{
		QueueSize:    cfg.Analytics.QueueSize,
		WriteTimeout: cfg.Analytics.WriteTimeout,
	}, logger)
	s.rollup = analytics.NewRollup(analyticsRepo, analytics.RollupConfig{
		Schedule: cfg.Analytics.RollupSchedule,
		Window:   cfg.Analytics.RollupWindow,
	}, logger)
	if err := s.scheduleArchive(ctx, analyticsRepo); err != nil {
		return nil, err
	}

	s.live = tutorial.NewLiveHub(logger, cfg.Server.AllowedOrigins)
	s.tutorials = tutorial.NewService(tutorial.ServiceConfig{
		SessionTTL:    cfg.Tutorial.SessionTTL,
		SweepInterval: cfg.Tutorial.SweepInterval,
	}, s.live, logger,
		tutorial.WithTransitionObserver(s.recorder.TutorialObserver()),
		tutorial.WithTransitionObserver(s.metrics.TutorialObserver()),
	)

	progress := onboarding.NewService(progressRepo, logger)
	links := sms.AppLinks{IOS: cfg.App.IOSURL, Android: cfg.App.AndroidURL}

	authService := auth.NewService(backend, progress, logger)
	companyService := company.NewService(backend, progress, texts, emails, company.Config{
		Links:            links,
		MaxParallelSends: cfg.App.MaxParallelSends,
	}, logger)

	s.limiter = middleware.NewRateLimiter(float64(cfg.RateLimit.RequestsPerMinute), cfg.RateLimit.Burst)

	s.metrics.GaugeFunc("tutorial_active_sessions", "Live tutorial sessions.", func() float64 {
		return float64(s.tutorials.ActiveSessions())
	})
	s.metrics.GaugeFunc("analytics_dropped_records", "Step records dropped because the queue was full.", func() float64 {
		_, dropped := s.recorder.Stats()
		return float64(dropped)
	})

	gin.SetMode(gin.ReleaseMode)
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(
		middleware.Recovery(logger),
		middleware.RequestLogger(logger),
		s.metrics.Middleware(),
		middleware.CORS(cfg.Server.AllowedOrigins),
		identity.Middleware(),
		variant.Middleware(variant.Options{
			Routes:   cfg.Variant.Routes,
			Secure:   cfg.Security.SecureCookie,
			OnAssign: s.metrics.ObserveVariant,
		}),
	)

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	site.NewHandler(s.tutorials, progress, variant.FromContext, visitor.FromContext, site.Config{
		VideoURL: cfg.Tutorial.VideoURL,
		Links:    links,
	}, logger).RegisterRoutes(router)

	api := router.Group("/api")
	{
		tutorial.NewHandler(s.tutorials, variant.FromContext, visitor.FromContext, logger).RegisterRoutes(api)
		analytics.NewHandler(s.recorder, s.rollup, analyticsRepo, variant.FromContext, visitor.FromContext, logger).RegisterRoutes(api)
		onboarding.NewHandler(progress, variant.FromContext, visitor.FromContext, logger).RegisterRoutes(api)
	}

	// routes that reach Bubble or send messages are rate limited per client
	limited := api.Group("", s.limiter.Middleware())
	{
		auth.RegisterRoutes(limited, auth.NewHandler(authService, visitor.FromContext, logger))
		company.NewHandler(companyService, visitor.FromContext, logger).RegisterRoutes(limited)
		sms.NewHandler(texts, links, logger).RegisterRoutes(limited)
	}

	s.router = router
	return s, nil
}

func (s *Server) repositories() (onboarding.Repository, analytics.Repository, error) {
	if !s.cfg.Database.UseDatabase() {
		s.logger.Info("No database configured, keeping state in memory")
		return onboarding.NewMemoryRepository(), analytics.NewMemoryRepository(), nil
	}

	db, err := OpenDatabase(s.cfg.Database, s.logger)
	if err != nil {
		return nil, nil, err
	}
	s.db = db

	progressRepo, err := onboarding.NewGormRepository(db)
	if err != nil {
		return nil, nil, err
	}
	analyticsRepo, err := analytics.NewGormRepository(db)
	if err != nil {
		return nil, nil, err
	}
	return progressRepo, analyticsRepo, nil
}

func (s *Server) senders(ctx context.Context) (sms.Sender, sms.EmailSender, error) {
	var texts sms.Sender = sms.NewLogSender(s.logger)
	var emails sms.EmailSender = sms.NewLogEmailSender(s.logger)

	if s.cfg.SMS.Provider == "twilio" {
		t := s.cfg.SMS.Twilio
		texts = sms.NewTwilioSender(sms.TwilioConfig{
			AccountSID: t.AccountSID,
			AuthToken:  t.AuthToken,
			From:       t.From,
			BaseURL:    t.BaseURL,
			Timeout:    t.Timeout,
		}, s.logger)
	}

	if s.cfg.SMS.Provider != "sns" && s.cfg.Email.Provider != "ses" {
		return texts, emails, nil
	}

	awsCfg, err := s.awsConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if s.cfg.SMS.Provider == "sns" {
		texts = sms.NewSNSSender(sns.NewFromConfig(awsCfg), s.cfg.SMS.SenderID, s.logger)
	}
	if s.cfg.Email.Provider == "ses" {
		emails = sms.NewSESSender(sesv2.NewFromConfig(awsCfg), s.cfg.Email.From, s.logger)
	}
	return texts, emails, nil
}

// awsConfig loads the shared AWS configuration once
func (s *Server) awsConfig(ctx context.Context) (aws.Config, error) {
	if s.aws != nil {
		return *s.aws, nil
	}
	awsCfg, err := sms.LoadAWSConfig(ctx, sms.AWSConfig{
		Region:          s.cfg.AWS.Region,
		AccessKeyID:     s.cfg.AWS.AccessKeyID,
		SecretAccessKey: s.cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		return aws.Config{}, err
	}
	s.aws = &awsCfg
	return awsCfg, nil
}

// scheduleArchive adds the daily S3 export to the rollup cron when a bucket
// is configured.
func (s *Server) scheduleArchive(ctx context.Context, repo analytics.Repository) error {
	a := s.cfg.Analytics
	if a.ArchiveBucket == "" {
		return nil
	}
	awsCfg, err := s.awsConfig(ctx)
	if err != nil {
		return err
	}
	format, err := analytics.ParseExportFormat(a.ArchiveFormat)
	if err != nil {
		return err
	}
	archiver := analytics.NewArchiver(repo, storage.NewS3Archive(awsCfg, a.ArchiveBucket, a.ArchivePrefix), format, s.logger)
	s.rollup.Schedule("archive", a.ArchiveSchedule, archiver.Job)
	s.logger.Info("Analytics archive enabled",
		zap.String("bucket", a.ArchiveBucket),
		zap.String("schedule", a.ArchiveSchedule))
	return nil
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":          "healthy",
		"timestamp":       time.Now(),
		"active_sessions": s.tutorials.ActiveSessions(),
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		}
	}
	c.JSON(status, body)
}

// Run serves HTTP until ctx is cancelled, then shuts everything down in
// order: listener first, then sessions, then the analytics pipeline.
func (s *Server) Run(ctx context.Context) error {
	s.recorder.Start()
	if err := s.rollup.Start(ctx); err != nil {
		s.recorder.Stop()
		return err
	}

	srv := &http.Server{
		Addr:         s.cfg.Server.GetServerAddr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := s.limiter.Sweep(); n > 0 {
					s.logger.Debug("Swept idle rate limiters", zap.Int("count", n))
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.close()
	s.logger.Info("Server exiting")
	return err
}

func (s *Server) close() {
	s.tutorials.Shutdown()
	s.rollup.Stop()
	s.recorder.Stop()
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
