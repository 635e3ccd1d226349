// cmd/worker-manager/workers.go
package main

import (
	"context"

	"credit-risk-workers/internal/common/aws"
	"credit-risk-workers/internal/common/camunda"
	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/common/observability"
	"credit-risk-workers/internal/records"
	"credit-risk-workers/internal/scoring"

	lar "credit-risk-workers/internal/workers/credit/list-applicant-records"
	nd "credit-risk-workers/internal/workers/credit/notify-decision"
	sa "credit-risk-workers/internal/workers/credit/score-applicant"
	sar "credit-risk-workers/internal/workers/credit/store-applicant-record"
	va "credit-risk-workers/internal/workers/credit/validate-applicant"
)

type registration struct {
	taskType string
	handler  camunda.JobHandler
}

func buildHandlers(ctx context.Context, cfg *config.Config, engine *scoring.Engine, store records.Store, obs *observability.Observability, log logger.Logger) ([]registration, error) {
	notify, err := newNotifyHandler(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return []registration{
		{va.TaskType, va.NewHandler(va.LoadConfig(cfg), log)},
		{sa.TaskType, sa.NewHandler(sa.LoadConfig(cfg), engine, obs, log)},
		{sar.TaskType, sar.NewHandler(sar.LoadConfig(cfg), store, log)},
		{lar.TaskType, lar.NewHandler(lar.LoadConfig(cfg), store, log)},
		{nd.TaskType, notify},
	}, nil
}

// newNotifyHandler only builds AWS clients for the enabled channels so a
// disabled channel stays a nil interface.
func newNotifyHandler(ctx context.Context, cfg *config.Config, log logger.Logger) (*nd.Handler, error) {
	ncfg := nd.LoadConfig(cfg)

	var (
		sesClient nd.SESService
		snsClient nd.SNSService
	)
	if ncfg.EmailEnabled || ncfg.SMSEnabled {
		clients, err := aws.NewClients(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			return nil, err
		}
		if ncfg.EmailEnabled {
			sesClient = clients.SES
		}
		if ncfg.SMSEnabled {
			snsClient = clients.SNS
		}
	}

	return nd.NewHandler(ncfg, sesClient, snsClient, log), nil
}

func startWorkers(ctx context.Context, client *camunda.Client, cfg *config.Config, engine *scoring.Engine, store records.Store, obs *observability.Observability, log logger.Logger) ([]*camunda.Worker, error) {
	handlers, err := buildHandlers(ctx, cfg, engine, store, obs, log)
	if err != nil {
		return nil, err
	}

	var workers []*camunda.Worker
	for _, r := range handlers {
		if !config.IsWorkerEnabled(cfg, r.taskType) {
			log.Info("worker disabled", map[string]interface{}{"taskType": r.taskType})
			continue
		}
		w := camunda.NewWorker(client.Zeebe(), r.taskType, config.GetWorkerConfig(cfg, r.taskType), r.handler, log, obs)
		workers = append(workers, w)
	}

	log.Info("workers started", map[string]interface{}{
		"count":   len(workers),
		"gateway": cfg.Camunda.BrokerAddress,
	})
	return workers, nil
}
