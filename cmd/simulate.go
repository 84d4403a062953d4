package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anoop-jadhav-ui/RangeIQ/config"
	"github.com/anoop-jadhav-ui/RangeIQ/core/model"
	"github.com/anoop-jadhav-ui/RangeIQ/simulator"
)

var (
	simFrom    string
	simTo      string
	simUser    string
	simVariant string
	simTrips   int
	simTempC   float64
	simSpeed   float64
	simTraffic string
	simSeed    int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate synthetic trips over a route and sync them",
	Long: `Generates physics-plausible trips between two coordinates and runs them
through the sync pipeline, seeding crowd data in the configured store.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simFrom, "from", "", "origin as lat,lng (required)")
	simulateCmd.Flags().StringVar(&simTo, "to", "", "destination as lat,lng (required)")
	simulateCmd.Flags().StringVar(&simUser, "user", "simulator", "user id to sync as")
	simulateCmd.Flags().StringVar(&simVariant, "variant", model.DefaultVariantID, "vehicle variant id")
	simulateCmd.Flags().IntVar(&simTrips, "trips", 25, "number of trips to generate")
	simulateCmd.Flags().Float64Var(&simTempC, "temp", 20, "ambient temperature in Celsius")
	simulateCmd.Flags().Float64Var(&simSpeed, "speed", 60, "average speed in km/h")
	simulateCmd.Flags().StringVar(&simTraffic, "traffic", "moderate", "traffic density")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 1, "random seed")
	_ = simulateCmd.MarkFlagRequired("from")
	_ = simulateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(simulateCmd)
}

func parseCoordinate(s string) (model.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Coordinate{}, fmt.Errorf("expected lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	c := model.Coordinate{Latitude: lat, Longitude: lng}
	return c, c.Validate()
}

func runSimulate(cmd *cobra.Command, args []string) error {
	origin, err := parseCoordinate(simFrom)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	dest, err := parseCoordinate(simTo)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	traffic := model.ParseTrafficDensity(simTraffic)
	route, err := model.NewRoute(origin, dest)
	if err != nil {
		return err
	}

	trips := simulator.GenerateTrips(route, simulator.Options{
		UserID:       simUser,
		VariantID:    simVariant,
		TripCount:    simTrips,
		TemperatureC: simTempC,
		AvgSpeedKmh:  simSpeed,
		Traffic:      traffic,
		Seed:         simSeed,
	})

	cfg, err := config.Load(cfgPath)
	if err != nil {
		cfg = config.Default()
	}
	pipeline, st, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// The simulator user opts into sharing, otherwise nothing reaches the
	// crowd aggregates.
	if err := st.PutUser(cmd.Context(), model.UserProfile{
		ID:                 simUser,
		DefaultVariantID:   simVariant,
		ShareAnonymousData: true,
	}); err != nil {
		return fmt.Errorf("seed user: %w", err)
	}

	res, err := pipeline.SyncTrips(cmd.Context(), simUser, trips)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
