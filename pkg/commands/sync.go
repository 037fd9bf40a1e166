package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/iota-uz/presence/pkg/configuration"
)

func newSyncCmd() *cobra.Command {
	var entryKey string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a full reconciliation pass against both upstreams",
		Long:  `Fetches the time-tracker and HR snapshots, merges them into the roster honoring operator overrides, creates first-seen entries, archives entries gone from both upstreams and rebuilds today's attendance records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			stopMetrics := maybeServeMetrics(a.conf)
			defer stopMetrics()

			if entryKey != "" {
				e, err := a.sync.SyncEntry(a.ctx, entryKey)
				if err != nil {
					return err
				}
				a.log.WithField("key", e.Key()).Info("entry synced")
				return nil
			}

			summary, err := a.sync.RunFull(a.ctx)
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(summary, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&entryKey, "entry", "", "sync a single roster entry by key instead of the full roster")
	return cmd
}

func newSyncDayCmd() *cobra.Command {
	var dateStr string

	cmd := &cobra.Command{
		Use:   "sync-day",
		Short: "Rebuild attendance records for one day from tracker activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().UTC()
			if dateStr != "" {
				var err error
				day, err = time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", dateStr)
				}
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sync.RunDay(a.ctx, day); err != nil {
				return err
			}
			a.log.WithField("day", day.Format("2006-01-02")).Info("attendance rebuilt")
			return nil
		},
	}
	cmd.Flags().StringVar(&dateStr, "date", "", "day to rebuild (YYYY-MM-DD, default today)")
	return cmd
}

// maybeServeMetrics exposes the prometheus endpoint for the duration of a
// run when enabled. Long reconciliation passes are scraped mid-flight.
func maybeServeMetrics(conf *configuration.Configuration) func() {
	if !conf.Prometheus.Enabled {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle(conf.Prometheus.Path, promhttp.Handler())
	srv := &http.Server{Addr: ":9090", Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return func() { _ = srv.Close() }
}
