package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ewanb/gridpulse/internal/external/elexon"
	"github.com/ewanb/gridpulse/internal/ingest"
	"github.com/ewanb/gridpulse/internal/ingest/quality"
	"github.com/ewanb/gridpulse/internal/scheduler"
	"github.com/ewanb/gridpulse/internal/scheduler/jobs"
	"github.com/ewanb/gridpulse/pkg/config"
	"github.com/ewanb/gridpulse/pkg/database"
	"github.com/ewanb/gridpulse/pkg/httputil"
	"github.com/ewanb/gridpulse/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the scheduler",
	Long: `Starts the scheduler daemon or manages its jobs.

Registered jobs:
- data_refresh: fetches the last 24 hours and upserts it (default: every 30 minutes)

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run one job immediately
  status  - show last run per job

Example:
  go run ./cmd/gridpulse scheduler start
  go run ./cmd/gridpulse scheduler run data_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and schedules all registered jobs.

The scheduler runs until interrupted with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show last run per job",
		RunE:  showStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== GridPulse Scheduler ===")

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job started (running in background)")
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Job Status:")
	fmt.Println()

	for _, jobName := range sched.GetAllJobs() {
		history, err := sched.GetJobHistory(jobName)
		if err != nil {
			return fmt.Errorf("get history: %w", err)
		}

		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Total Runs: %d\n", len(history.Results))

		if last := history.Latest(); last != nil {
			fmt.Printf("   Last Run: %s\n", last.StartTime.Format("2006-01-02 15:04:05"))
			fmt.Printf("   Duration: %v\n", last.Duration)
			fmt.Printf("   Success: %v\n", last.Success)
			if last.Error != "" {
				fmt.Printf("   Error: %s\n", last.Error)
			}
		} else {
			fmt.Println("   (not run yet)")
		}

		fmt.Println()
	}

	return nil
}

// initScheduler wires the collector pipeline into the scheduler.
// The returned cleanup closes the database pool.
func initScheduler() (*scheduler.Scheduler, func(), error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Create fetch pipeline
	httpClient := httputil.New(cfg, log)
	elexonClient := elexon.NewClient(cfg.Elexon.BaseURL, httpClient, log)
	filter := quality.NewFilter(cfg.Collector.MinTotalGenerationMW, log)
	col := ingest.NewCollector(elexonClient, filter, cfg.Collector, log)

	// 5. Create repository
	repo := ingest.NewRepository(db.Pool)

	// 6. Create scheduler and register jobs
	sched := scheduler.New(log)

	refreshJob := jobs.NewDataRefreshJob(col, repo, filter, cfg, log)
	if err := sched.AddJob(refreshJob); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("add job %s: %w", refreshJob.Name(), err)
	}

	return sched, db.Close, nil
}
