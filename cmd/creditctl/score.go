package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"credit-risk-workers/internal/common/config"
	apperrors "credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/validation"
	"credit-risk-workers/internal/models"
	"credit-risk-workers/internal/records"
	"credit-risk-workers/internal/scoring"
	"credit-risk-workers/pkg/artifacts"
)

var (
	defaults = models.DefaultApplicantAttributes()
	now      = time.Now
)

type scoreOutput struct {
	scoring.Result
	Record           *models.ApplicantRecord `json:"record,omitempty"`
	PersistenceError string                  `json:"persistenceError,omitempty"`
}

// attribute flags are keyed by the applicant payload field they fill.
var attributeFlags = []struct {
	field string
	flag  cli.Flag
}{
	{"gender", &cli.StringFlag{Name: "gender", Value: defaults.Gender, Usage: "Male or Female"}},
	{"married", &cli.StringFlag{Name: "married", Value: defaults.Married, Usage: "Yes or No"}},
	{"dependents", &cli.IntFlag{Name: "dependents", Value: defaults.Dependents, Usage: "Number of dependents, 0 to 3"}},
	{"education", &cli.StringFlag{Name: "education", Value: defaults.Education, Usage: "Graduate or Not Graduate"}},
	{"selfEmployed", &cli.StringFlag{Name: "self-employed", Value: defaults.SelfEmployed, Usage: "Yes or No"}},
	{"applicantIncome", &cli.FloatFlag{Name: "applicant-income", Value: defaults.ApplicantIncome, Usage: "Monthly applicant income"}},
	{"coapplicantIncome", &cli.FloatFlag{Name: "coapplicant-income", Value: defaults.CoapplicantIncome, Usage: "Monthly co-applicant income"}},
	{"loanAmount", &cli.FloatFlag{Name: "loan-amount", Value: defaults.LoanAmount, Usage: "Loan amount in thousands"}},
	{"loanTermMonths", &cli.IntFlag{Name: "loan-term", Value: defaults.LoanTermMonths, Usage: "Loan term in months: 360, 240, 180 or 120"}},
	{"creditHistory", &cli.FloatFlag{Name: "credit-history", Value: defaults.CreditHistory, Usage: "1 when credit history meets guidelines, else 0"}},
	{"propertyArea", &cli.StringFlag{Name: "property-area", Value: defaults.PropertyArea, Usage: "Rural, Semiurban or Urban"}},
	{"utilityPaymentScore", &cli.FloatFlag{Name: "utility-payment-score", Value: defaults.UtilityPaymentScore, Usage: "On-time utility payments, 0 to 1"}},
	{"mobileTransactions", &cli.IntFlag{Name: "mobile-transactions", Value: defaults.MobileTransactions, Usage: "Monthly mobile money transactions, 0 to 200"}},
	{"socialMediaScore", &cli.IntFlag{Name: "social-media-score", Value: defaults.SocialMediaScore, Usage: "Social media reputation, 0 to 10"}},
}

var (
	strategyFlag = &cli.StringFlag{
		Name:  "strategy",
		Usage: "Strategy id or alias (optional, defaults to scoring.default_strategy)",
	}

	persistFlag = &cli.BoolFlag{
		Name:  "persist",
		Usage: "Append the scored applicant to the record store",
	}

	collectionFlag = &cli.StringFlag{
		Name:  "collection",
		Usage: "Record collection (optional, defaults to records.collection)",
	}
)

func scoreCmd() *cli.Command {
	flags := []cli.Flag{strategyFlag, persistFlag, collectionFlag}
	for _, a := range attributeFlags {
		flags = append(flags, a.flag)
	}

	return &cli.Command{
		Name:   "score",
		Usage:  "Score one applicant",
		Flags:  flags,
		Action: runScore,
	}
}

func applicantPayload(cmd *cli.Command) map[string]interface{} {
	payload := make(map[string]interface{}, len(attributeFlags))
	for _, a := range attributeFlags {
		switch f := a.flag.(type) {
		case *cli.StringFlag:
			payload[a.field] = cmd.String(f.Name)
		case *cli.IntFlag:
			payload[a.field] = cmd.Int(f.Name)
		case *cli.FloatFlag:
			payload[a.field] = cmd.Float(f.Name)
		}
	}
	return payload
}

func runScore(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd)

	attrs, vr, err := validation.DecodeApplicant(applicantPayload(cmd))
	if err != nil {
		return err
	}
	if !vr.Valid {
		return vr
	}

	arts, err := artifacts.Load(cfg.Scoring.ManifestPath)
	if err != nil {
		return fmt.Errorf("error loading manifest: %w", err)
	}
	engine, err := scoring.NewEngine(arts, log)
	if err != nil {
		return err
	}

	strategy := cmd.String(strategyFlag.Name)
	if strategy == "" {
		strategy = cfg.Scoring.DefaultStrategy
	}

	result, rec, err := engine.Evaluate(strategy, attrs)
	if err != nil {
		return describe(err)
	}

	out := scoreOutput{Result: result}
	if !cmd.Bool(persistFlag.Name) {
		return printJSON(cmd, out)
	}

	collection := cmd.String(collectionFlag.Name)
	if collection == "" {
		collection = cfg.Records.Collection
	}

	perr := persist(ctx, cfg, collection, &rec, log)
	if perr != nil {
		out.PersistenceError = describe(perr).Error()
	} else {
		out.Record = &rec
	}
	if err := printJSON(cmd, out); err != nil {
		return err
	}
	if perr != nil {
		return errors.New("scored applicant was not persisted")
	}
	return nil
}

func persist(ctx context.Context, cfg *config.Config, collection string, rec *models.ApplicantRecord, log logger.Logger) error {
	store, err := records.Open(ctx, cfg, log)
	if err != nil {
		return apperrors.NewPersistenceFailureError("open", err)
	}
	defer store.Close()

	*rec = records.Stamp(*rec, now())
	return store.Append(ctx, collection, *rec)
}

// describe flattens a StandardError into "CODE: message (details)".
func describe(err error) error {
	std := apperrors.Normalize(err)
	if std.Details != "" {
		return fmt.Errorf("%s: %s (%s)", std.Code, std.Message, std.Details)
	}
	return fmt.Errorf("%s: %s", std.Code, std.Message)
}
