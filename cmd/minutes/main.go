package main

import (
	"fmt"
	"os"

	"github.com/Nephrolytics-ai/polyglot-minutes/internal/cli"
	"github.com/Nephrolytics-ai/polyglot-minutes/internal/output"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-minutes/pkg/pipeline"
)

func main() {
	if err := run(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("MINUTES_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logging.Configure(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	p, err := pipeline.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}

	deps := &cli.Dependencies{
		Config:   cfg,
		Pipeline: p,
	}

	return cli.NewRootCmd(deps).Execute()
}
