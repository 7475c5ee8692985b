package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"toronto-housing/config"
	"toronto-housing/utils"
)

func main() {
	mode := flag.String("mode", "all", "scrape | clean | eda | all")
	input := flag.String("input", "", "input CSV (clean: raw CSV, eda: clean CSV)")
	output := flag.String("output", "", "output CSV (scrape: raw CSV, clean: clean CSV)")
	outputDir := flag.String("output-dir", "", "directory for EDA outputs")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()
	if err := applyFlags(cfg, *mode, *input, *output, *outputDir); err != nil {
		logger.Error("%v", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Toronto housing pipeline starting (mode: %s) ===", *mode)

	p := newPipeline(cfg, logger)
	if err := p.run(ctx, *mode); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	fmt.Printf("  Done. Raw CSV → %s | Clean CSV → %s | EDA → %s\n\n",
		cfg.RawCSVPath, cfg.CleanCSVPath, cfg.EDAOutputDir)
}

// applyFlags points the stage's input and output at the flag values.
func applyFlags(cfg *config.Config, mode, input, output, outputDir string) error {
	switch mode {
	case modeScrape:
		if input != "" {
			return fmt.Errorf("-input is not used in %s mode", mode)
		}
		setIf(&cfg.RawCSVPath, output)
	case modeClean:
		setIf(&cfg.RawCSVPath, input)
		setIf(&cfg.CleanCSVPath, output)
	case modeEDA:
		if output != "" {
			return fmt.Errorf("-output is not used in %s mode, use -output-dir", mode)
		}
		setIf(&cfg.CleanCSVPath, input)
	case modeAll:
		if input != "" || output != "" {
			return fmt.Errorf("-input and -output are not used in %s mode", mode)
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	setIf(&cfg.EDAOutputDir, outputDir)
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
