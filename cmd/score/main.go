// Command score sends one transaction to the scoring API and prints the rendered result.
//
//	score -features "0.1,0.2,..."        # single prediction
//	echo "0.1,0.2,..." | score -compare  # prediction and model comparison
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"FraudDash/internal/domain/models"
	"FraudDash/internal/services/features"
	"FraudDash/internal/services/risk"
	"FraudDash/internal/services/scoring"
	"FraudDash/pkg/config"
	applogger "FraudDash/pkg/logger"
)

type output struct {
	Features   string                 `json:"features"`
	Prediction *models.PredictionView `json:"prediction,omitempty"`
	Comparison *models.ComparisonView `json:"comparison,omitempty"`
	Summary    string                 `json:"summary,omitempty"`
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	raw := flag.String("features", "", "comma-separated feature values; read from stdin when empty")
	compare := flag.Bool("compare", false, "also compare every model")
	verbose := flag.Bool("v", false, "log scoring calls")
	flag.Parse()

	if err := run(*configPath, *raw, *compare, *verbose, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "score:", err)
		var verr *features.ValidationError
		if errors.As(err, &verr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(configPath, raw string, compare, verbose bool, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return err
	}

	if strings.TrimSpace(raw) == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = line
	}

	vec, err := features.Parse(raw)
	if err != nil {
		return err
	}

	l := applogger.NewNop()
	if verbose {
		if l, err = applogger.New(&applogger.Config{Level: "debug", Format: "console", Output: "stderr"}); err != nil {
			return err
		}
	}
	client := scoring.NewClient(cfg, l)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Scoring.Timeout)
	defer cancel()

	out := output{Features: features.Format(vec)}
	res, err := client.Predict(ctx, vec)
	if err != nil {
		return err
	}
	pv := risk.PredictionView(res)
	out.Prediction = &pv
	out.Summary = risk.Summary(res)

	if compare {
		cmp, err := client.Compare(ctx, vec)
		if err != nil {
			return err
		}
		active := models.ModelRandomForest
		if !cmp.Enabled(active) {
			active, _ = cmp.FirstEnabled()
		}
		cv := risk.ComparisonView(cmp, active)
		out.Comparison = &cv
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
