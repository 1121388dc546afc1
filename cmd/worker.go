package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/guardian/services/monitor/config"
	"example.com/guardian/services/monitor/internal/cache"
	"example.com/guardian/services/monitor/internal/database"
	"example.com/guardian/services/monitor/internal/messaging"
	"example.com/guardian/services/monitor/internal/notification"
	"example.com/guardian/services/monitor/internal/repository"
	"example.com/guardian/services/monitor/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long: `Start the background worker that periodically re-attempts caregiver
notification fan-out for unresolved emergency events.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// Initialize cache
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize Redis cache, continuing without caching")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Initialize messaging client for push notifications
	busClient, err := messaging.NewServiceBusClient(cfg.ServiceBus)
	if err != nil {
		return err
	}
	defer busClient.Close()

	// Initialize service
	svc, err := service.NewService(service.ServiceConfig{
		Repository:   repository.NewRepository(db),
		Cache:        redisClient,
		EmailChannel: notification.NewEmailChannel(cfg.SMTP),
		PushChannel:  notification.NewPushChannel(busClient),
		Logger:       log,
		Thresholds:   cfg.Thresholds,
		Fanout:       cfg.Fanout,
	})
	if err != nil {
		return err
	}
	defer svc.Shutdown()

	interval := cfg.Fanout.FollowUpInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	// Create an error group to manage goroutines
	g, ctx := errgroup.WithContext(ctx)

	// Start the follow-up cron job
	g.Go(func() error {
		log.WithField("interval", interval).Info("Starting emergency follow-up job")

		// Create a scheduler
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return err
		}

		// Add the follow-up job
		_, err = scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() {
				log.Info("Running follow-up sweep for unresolved emergencies")
				if err := svc.FollowUpSweep(ctx); err != nil {
					log.WithError(err).Error("Follow-up sweep failed")
				}
			}),
		)
		if err != nil {
			return err
		}

		// Start the scheduler
		scheduler.Start()

		// Wait for context cancellation
		<-ctx.Done()

		// Shutdown the scheduler
		return scheduler.Shutdown()
	})

	// Wait for any goroutine to exit
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Worker error")
		return err
	}

	log.Info("Worker shutting down gracefully")
	return nil
}
