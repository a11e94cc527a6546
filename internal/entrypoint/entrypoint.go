package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/seatgenie/library/internal/audit"
	"github.com/seatgenie/library/internal/auth"
	"github.com/seatgenie/library/internal/config"
	"github.com/seatgenie/library/internal/database"
	auditrepo "github.com/seatgenie/library/internal/database/audit"
	"github.com/seatgenie/library/internal/database/authors"
	"github.com/seatgenie/library/internal/database/books"
	"github.com/seatgenie/library/internal/database/loans"
	"github.com/seatgenie/library/internal/database/members"
	"github.com/seatgenie/library/internal/database/reports"
	"github.com/seatgenie/library/internal/database/staff"
	"github.com/seatgenie/library/internal/demo"
	http_controllers "github.com/seatgenie/library/internal/http"
	"github.com/seatgenie/library/internal/scheduler"
	"github.com/seatgenie/library/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// OpenDatabase connects to and migrates the configured database.
func OpenDatabase(cfg *config.Config) (*database.Database, error) {
	return database.Open(database.Options{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		DSN:      cfg.Database.DSN,
		LogLevel: cfg.Database.LogLevel,
	})
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work stops after in-flight requests have drained
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Library v%s", version)

	var readOnly *demo.Middleware
	if cfg.Global.ReadOnly {
		log.Printf("Read-only mode enabled - write operations will be blocked")
		readOnly = demo.NewMiddleware(true)
	}

	db, err := OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	loanRepo := loans.NewRepository(db.DB).WithLoanPeriod(cfg.Loans.LoanPeriod())
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))

	// Task queue and the scheduler feeding it
	var taskClient *tasks.Client
	var taskQueue http_controllers.TaskQueue
	var maintenance *scheduler.Scheduler
	taskCtx, taskCtxCancel := context.WithCancel(context.Background())
	defer taskCtxCancel()

	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Enabled:            true,
			Workers:            cfg.Tasks.Workers,
			ReleaseAfter:       cfg.Tasks.ReleaseAfter,
			CleanupInterval:    cfg.Tasks.CleanupInterval,
			AuditRetentionDays: cfg.Audit.RetentionDays,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewScanOverdueLoansQueue(loanRepo, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService, auditService),
		)
		go taskClient.Start(taskCtx)
		taskQueue = taskClient

		maintenance = scheduler.New(taskClient, maintenanceJobs(cfg)...)
		if err := maintenance.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled")
	}

	var authMiddleware *auth.Middleware
	var limiter *auth.RateLimiter
	if cfg.Auth.Mode == config.AuthModeBasic {
		log.Printf("Authentication mode: basic (writes require a staff account)")
		authService := auth.NewService(staff.NewRepository(db.DB), cfg.Auth.BcryptCost)
		limiter = auth.NewRateLimiter(auth.DefaultRateLimitConfig())
		authMiddleware = auth.NewMiddleware(authService, limiter, cfg.Auth)

		if hasStaff, err := authService.HasStaff(context.Background()); err == nil && !hasStaff {
			log.Printf("No staff accounts found. Run '%s create-staff' to add one.", os.Args[0])
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		AuthorStore:        authors.NewRepository(db.DB),
		MemberStore:        members.NewRepository(db.DB),
		BookStore:          books.NewRepository(db.DB),
		LoanStore:          loanRepo,
		ReportStore:        reports.NewRepository(db.DB, db.Dialect),
		Recorder:           auditService,
		AuditEvents:        auditService,
		Database:           db,
		TaskQueue:          taskQueue,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		AuthMiddleware:     authMiddleware,
		ReadOnlyMiddleware: readOnly,
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		StaticPath:         cfg.UI.StaticPath,
		Version:            version,
	})

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
		}
		taskCtxCancel()
		if limiter != nil {
			limiter.Stop()
		}
		auditService.Wait()
	}

	Serve(router, cfg, onShutdown)
}

// maintenanceJobs builds the periodic jobs from the configured schedules.
// An empty schedule disables its job.
func maintenanceJobs(cfg *config.Config) []scheduler.Job {
	var jobs []scheduler.Job
	if cfg.Schedules.OverdueScan != "" {
		jobs = append(jobs, scheduler.Job{
			Name:     tasks.TypeScanOverdueLoans,
			Schedule: cfg.Schedules.OverdueScan,
			Task:     func() backlite.Task { return tasks.ScanOverdueLoansTask{} },
		})
	}
	if cfg.Schedules.AuditCleanup != "" {
		retention := cfg.Audit.RetentionDays
		jobs = append(jobs, scheduler.Job{
			Name:     tasks.TypeCleanupAuditEvents,
			Schedule: cfg.Schedules.AuditCleanup,
			Task:     func() backlite.Task { return tasks.CleanupAuditEventsTask{RetentionDays: retention} },
		})
	}
	for _, job := range jobs {
		log.Printf("Scheduled %s: %s", job.Name, scheduler.Describe(job.Schedule))
	}
	return jobs
}
