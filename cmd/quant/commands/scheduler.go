package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ll101/project-algo-trading/internal/scheduler"
	"github.com/ll101/project-algo-trading/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduled background jobs",
	Long: `Starts the cron scheduler or manages its jobs.

Registered jobs:
- ingest_bars:      daily at 01:30 UTC (incremental bar ingestion)
- universe_refresh: Sunday at 06:00 UTC (Nasdaq-100 membership)

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs
  run     - run one job immediately
  status  - job execution statistics

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler run ingest_bars`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and blocks until interrupted.

Stop with Ctrl+C; in-flight jobs are drained before exit.`,
		RunE: runSchedulerStart,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  runSchedulerList,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Job execution statistics",
		RunE:  runSchedulerStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func initScheduler() (*scheduler.Scheduler, *app, error) {
	a, err := initApp()
	if err != nil {
		return nil, nil, err
	}
	if err := a.connectData(); err != nil {
		return nil, nil, err
	}

	runner, err := a.newRunner(0)
	if err != nil {
		a.close()
		return nil, nil, fmt.Errorf("init runner: %w", err)
	}

	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewIngestBarsJob(runner, a.stocks, a.log)); err != nil {
		a.close()
		return nil, nil, fmt.Errorf("register ingest job: %w", err)
	}
	if err := sched.AddJob(jobs.NewUniverseJob(a.newUniverseFetcher(), a.cache, a.log)); err != nil {
		a.close()
		return nil, nil, fmt.Errorf("register universe job: %w", err)
	}

	return sched, a, nil
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Scheduler ===")

	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func runSchedulerList(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("Running job: %s\n", jobName)
	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job started (running in background)")
	return nil
}

func runSchedulerStatus(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return err
	}
	defer a.close()

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}
