package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apitrips "github.com/anoop-jadhav-ui/RangeIQ/api/trips"
	"github.com/anoop-jadhav-ui/RangeIQ/config"
	"github.com/anoop-jadhav-ui/RangeIQ/core/crowd"
	"github.com/anoop-jadhav-ui/RangeIQ/core/metrics"
	"github.com/anoop-jadhav-ui/RangeIQ/core/store"
	"github.com/anoop-jadhav-ui/RangeIQ/core/tripsync"
	"github.com/anoop-jadhav-ui/RangeIQ/infra/logger"
	infrastore "github.com/anoop-jadhav-ui/RangeIQ/infra/store"
)

var syncFile string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest a trip batch file into the configured store",
	Long: `Reads a trip batch (same JSON shape as POST /api/trips/sync) from a file
and runs it through the sync pipeline against the configured store.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&syncFile, "file", "f", "", "trip batch JSON file (required)")
	_ = syncCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(syncCmd)
}

// newPipeline builds a store-backed sync pipeline for the one-shot commands.
func newPipeline(cfg *config.Config) (*tripsync.Pipeline, store.Store, error) {
	st, err := infrastore.Open(cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	log := logger.New("sync-cli")
	agg, err := crowd.NewAggregator(st, cfg.Crowd, log, metrics.NopSink{}, nil)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	pipeline, err := tripsync.New(st, st, agg, log, nil)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return pipeline, st, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(syncFile)
	if err != nil {
		return fmt.Errorf("read batch: %w", err)
	}
	var batch apitrips.SyncRequest
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("decode batch: %w", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		cfg = config.Default()
	}
	pipeline, st, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := pipeline.SyncTrips(cmd.Context(), batch.UserID, batch.Trips)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
