package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/records"
)

type listOutput struct {
	Collection string                   `json:"collection"`
	Count      int                      `json:"count"`
	Records    []models.ApplicantRecord `json:"records"`
}

func recordsCmd() *cli.Command {
	return &cli.Command{
		Name:  "records",
		Usage: "Inspect stored applicant records",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List every record of a collection, oldest first",
				Flags: []cli.Flag{
					collectionFlag,
				},
				Action: runListRecords,
			},
		},
	}
}

func runListRecords(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd)

	collection := cmd.String(collectionFlag.Name)
	if collection == "" {
		collection = cfg.Records.Collection
	}

	store, err := records.Open(ctx, cfg, log)
	if err != nil {
		return describe(err)
	}
	defer store.Close()

	list, err := store.List(ctx, collection)
	if err != nil {
		return describe(err)
	}
	if list == nil {
		list = []models.ApplicantRecord{}
	}

	return printJSON(cmd, listOutput{Collection: collection, Count: len(list), Records: list})
}
