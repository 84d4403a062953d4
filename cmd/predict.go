package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	apipredict "github.com/anoop-jadhav-ui/RangeIQ/api/predict"
	"github.com/anoop-jadhav-ui/RangeIQ/config"
	"github.com/anoop-jadhav-ui/RangeIQ/core/predict"
	"github.com/anoop-jadhav-ui/RangeIQ/infra/logger"
)

var predictFile string

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a one-shot physics prediction for a route file",
	Long: `Reads a prediction request (same JSON shape as POST /api/predict) from a
file and prints the whole-route physics prediction. No crowd store is
consulted; this is the offline path.`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVarP(&predictFile, "file", "f", "", "request JSON file (required)")
	_ = predictCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(predictFile)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	var req apipredict.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	cfg := config.Default()
	predictor, err := predict.New(nil, cfg.Prediction, logger.New("predict-cli"), nil, nil)
	if err != nil {
		return err
	}
	coreReq, err := apipredict.ToCoreRequest(req)
	if err != nil {
		return err
	}
	pred, err := predictor.PredictPhysics(coreReq)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pred)
}
