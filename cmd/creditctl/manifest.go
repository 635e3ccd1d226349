package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"credit-risk-workers/internal/scoring"
	"credit-risk-workers/pkg/artifacts"
)

type manifestReport struct {
	Valid       bool     `json:"valid"`
	Version     string   `json:"version,omitempty"`
	Features    int      `json:"features"`
	Strategies  []string `json:"strategies,omitempty"`
	Violations  []string `json:"violations,omitempty"`
	Divergences []string `json:"divergences,omitempty"`
}

func manifestCmd() *cli.Command {
	return &cli.Command{
		Name:  "manifest",
		Usage: "Work with model manifests",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Check a manifest against its schema and the feature layout",
				ArgsUsage: "PATH",
				Action:    runValidateManifest,
			},
		},
	}
}

func runValidateManifest(_ context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("manifest path is required")
	}

	m, err := artifacts.LoadManifest(path)
	if err != nil {
		var schemaErr *artifacts.SchemaError
		if errors.As(err, &schemaErr) {
			if perr := printJSON(cmd, manifestReport{Violations: schemaErr.Violations}); perr != nil {
				return perr
			}
			return fmt.Errorf("manifest %s has %d schema violations", path, len(schemaErr.Violations))
		}
		return fmt.Errorf("error reading manifest %s: %w", path, err)
	}

	arts, err := m.ToArtifacts()
	if err != nil {
		return err
	}

	var divergences []string
	engine, err := scoring.NewEngine(arts, newLogger(cmd), scoring.WithDivergenceHook(func(d scoring.Divergence) {
		divergences = append(divergences, fmt.Sprintf("%s %s", d.Kind, d.Name))
	}))
	if err != nil {
		return describe(err)
	}

	report := manifestReport{
		Valid:       true,
		Version:     m.Version,
		Features:    len(m.FeatureNames),
		Divergences: divergences,
	}
	for _, id := range engine.Strategies() {
		report.Strategies = append(report.Strategies, string(id))
	}
	if len(divergences) > 0 {
		newLogger(cmd).Warn("manifest features diverge from applicant attributes", map[string]interface{}{
			"divergences": strings.Join(divergences, ", "),
		})
	}

	return printJSON(cmd, report)
}
