package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/auditfile"
	"github.com/lixenwraith/auditfile/compat"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "auditctl",
		Short:         "Inspect and exercise audit spool files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newNextCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newSimulateCmd())
	return cmd
}

// newNextCmd prints the upcoming rotation boundaries and the spool
// filename each window resolves to, so operators can verify a
// pattern/interval pair before deploying it.
func newNextCmd() *cobra.Command {
	var (
		pattern  string
		dir      string
		interval int64
		count    int
	)
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print upcoming rotation boundaries and filenames",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("rotation interval must be positive, got %d", interval)
			}
			iv := time.Duration(interval) * time.Minute
			now := time.Now()
			for i := 0; i < count; i++ {
				boundary := auditfile.NextRotationTime(now, iv)
				window := auditfile.WindowStart(boundary, iv)
				name := auditfile.DeriveFilename(dir, pattern, window)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n",
					boundary.Format("2006-01-02 15:04:05 MST"), name)
				now = boundary
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "audit-%Y%m%d_%H%M.log", "filename pattern")
	cmd.Flags().StringVar(&dir, "dir", "", "spool directory")
	cmd.Flags().Int64Var(&interval, "interval", 1440, "rotation interval in minutes")
	cmd.Flags().IntVar(&count, "count", 5, "number of boundaries to print")
	return cmd
}

// newCheckCmd loads and validates a config file without writing anything.
func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <config.toml>",
		Short: "Validate a config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := auditfile.NewConfigFromFile(args[0])
			if err != nil {
				return err
			}
			if !cfg.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "valid (capture disabled: directory or pattern empty)")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %s every %s\n",
				auditfile.DeriveFilename(cfg.Directory, cfg.FilenamePattern,
					auditfile.WindowStart(auditfile.NextRotationTime(time.Now(), cfg.Interval()), cfg.Interval())),
				cfg.Interval())
			return nil
		},
	}
	return cmd
}

// newSimulateCmd drives a configured interceptor with synthetic audit
// events from several concurrent workers. Useful for smoke-testing a
// spool directory and eyeballing the produced records.
func newSimulateCmd() *cobra.Command {
	var (
		configPath string
		workers    int
		events     int
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Emit synthetic audit events against a config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := auditfile.NewConfigFromFile(configPath)
			if err != nil {
				return err
			}
			log := logrus.New()
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			it := auditfile.New()
			it.SetServerLogger(compat.LogrusServer(log))
			if err := it.ApplyConfig(cfg); err != nil {
				return err
			}

			var wg sync.WaitGroup
			var fellBack sync.Map
			start := time.Now()
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					w := it.NewWorker()
					defer w.Close()
					ctx := &auditfile.SessionContext{
						User:            "auditctl",
						Database:        "simulated",
						PID:             os.Getpid() + id,
						RemoteHost:      "[local]",
						SessionStart:    start,
						ProcessTitle:    "auditctl simulate",
						ApplicationName: "auditctl",
					}
					for j := 0; j < events; j++ {
						ev := &auditfile.Event{
							Message:        fmt.Sprintf("AUDIT: SESSION,%d,%d,MISC,SET,,,simulated statement", id, j),
							OutputToServer: true,
						}
						w.Emit(ev, ctx)
						if ev.OutputToServer {
							fellBack.Store(id, true)
						}
					}
				}(i)
			}
			wg.Wait()

			stats := it.Stats()
			fmt.Fprintf(cmd.OutOrStdout(),
				"records=%d rotations=%d fallbacks=%d open_failures=%d\n",
				stats.RecordsWritten, stats.Rotations, stats.Fallbacks, stats.OpenFailures)
			fallbacks := 0
			fellBack.Range(func(_, _ any) bool { fallbacks++; return true })
			if fallbacks > 0 {
				return fmt.Errorf("%d worker(s) fell back to the server logger", fallbacks)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "auditfile.toml", "path to config file")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent workers")
	cmd.Flags().IntVar(&events, "events", 100, "events per worker")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug output")
	return cmd
}
