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

	"github.com/wnghdcjfe/card/internal/cardgorilla"
	"github.com/wnghdcjfe/card/internal/collector"
	"github.com/wnghdcjfe/card/internal/config"
	"github.com/wnghdcjfe/card/internal/database"
	"github.com/wnghdcjfe/card/internal/database/cards"
	"github.com/wnghdcjfe/card/internal/database/logs"
	http_controllers "github.com/wnghdcjfe/card/internal/http"
	"github.com/wnghdcjfe/card/internal/scheduler"
	"github.com/wnghdcjfe/card/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then drains with the
// configured timeout. onShutdown runs before the server itself stops so that
// background workers finish first.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// taskEnqueuer adapts the tasks client to the narrow interface the collect
// endpoint needs.
type taskEnqueuer struct {
	client *tasks.Client
}

func (e *taskEnqueuer) EnqueueCollect(mode, term, cardGb string, limit int, chart string, cardIdx int) error {
	_, err := e.client.Add(tasks.CollectTask{
		Mode:    mode,
		Term:    term,
		CardGb:  cardGb,
		Limit:   limit,
		Chart:   chart,
		CardIdx: cardIdx,
	}).Save()
	return err
}

// Run wires the full service: database, upstream client, collector, task
// queue, scheduler and the HTTP API.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting card catalog service v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	cardStore := cards.NewRepository(db.DB)
	logStore := logs.NewRepository(db.DB)

	client := cardgorilla.NewClient(
		cardgorilla.WithBaseURL(cfg.CardGorilla.BaseURL),
		cardgorilla.WithTimeout(cfg.CardGorilla.RequestTimeout),
		cardgorilla.WithRetry(cfg.CardGorilla.RetryAttempts, cfg.CardGorilla.RetryDelay),
	)

	coll := collector.New(client, cardStore, logStore, collector.Pacing{
		ItemDelay:     cfg.Collector.ItemDelay,
		ListItemDelay: cfg.Collector.ListItemDelay,
		PageDelay:     cfg.Collector.PageDelay,
	})

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var collectScheduler *scheduler.CollectScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewCollectQueue(coll))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		// Scheduled collections only make sense with the queue running.
		collectScheduler = scheduler.NewCollectScheduler(cfg, taskClient)
		if err := collectScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start collect scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled; scheduled and API-triggered collections are unavailable")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:   db,
		CardStore:  cardStore,
		StatsStore: cardStore,
		LogStore:   logStore,
		Version:    version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = &taskEnqueuer{client: taskClient}
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if collectScheduler != nil {
			collectScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
