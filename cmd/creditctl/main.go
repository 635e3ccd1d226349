package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/logger"
)

var (
	name    = "creditctl"
	version = "v0.0.1-default"

	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to a config file (optional, defaults to configs/config.yaml lookup)",
		Sources: cli.EnvVars("CREDITCTL_CONFIG"),
	}

	manifestFlag = &cli.StringFlag{
		Name:  "manifest",
		Usage: "Model manifest overriding scoring.manifest_path (optional)",
	}

	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs to stderr (optional, default: false)",
	}
)

func main() {
	if err := newRootCmd().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: version,
		Usage:   "Score loan applicants and inspect stored decisions",
		Flags: []cli.Flag{
			configFlag,
			manifestFlag,
			debugFlag,
		},
		Commands: []*cli.Command{
			scoreCmd(),
			recordsCmd(),
			manifestCmd(),
		},
	}
}

// loadConfig reads --config when given, otherwise the standard lookup.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := cmd.String(configFlag.Name); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if path := cmd.String(manifestFlag.Name); path != "" {
		cfg.Scoring.ManifestPath = path
	}
	return cfg, nil
}

func newLogger(cmd *cli.Command) logger.Logger {
	level := "warn"
	if cmd.Bool(debugFlag.Name) {
		level = "debug"
	}
	return logger.NewZapAdapter(logger.NewWithOutput(level, "console", "stderr"))
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func printJSON(cmd *cli.Command, v interface{}) error {
	enc := json.NewEncoder(writer(cmd))
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("error encoding output: %w", err)
	}
	return nil
}
