package reconcile

import (
	"context"
	"fmt"

	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/platform/config"
	"admission_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

var leadCheckFields = []string{
	"IsConverted", "ConvertedAccountId", "ConvertedOpportunityId", "Email", "Phone",
}

const (
	pathReconcileConverted   = "reconcile-converted"
	pathReconcileDuplicate   = "reconcile-duplicate"
	pathReconcileUnconverted = "reconcile-unconverted"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	crm     ports.CRM
	journal ports.Journal
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, crm ports.CRM, journal ports.Journal, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		crm:     crm,
		journal: journal,
		log:     log,
	}

	mux.HandleFunc(TaskLeadReconcile, w.handleLeadReconcile)

	return w, nil
}

// handleLeadReconcile looks at a lead whose conversion timed out during
// registration. By now the registrant owns a directly provisioned account,
// so a late automation convert produced a second account that operations
// must merge; the journal rows carry both IDs for that.
func (w *Worker) handleLeadReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadReconcilePayload(task)
	if err != nil {
		return err
	}

	lead, err := w.crm.Retrieve(ctx, "Lead", payload.LeadID, leadCheckFields)
	if err != nil {
		w.log.CRMError("retrieve", "Lead", err)
		return err
	}

	rec := ports.AttemptRecord{
		Email:         lead.Str("Email"),
		Phone:         lead.Str("Phone"),
		LeadID:        payload.LeadID,
		AccountID:     payload.AccountID,
		OpportunityID: payload.OpportunityID,
	}

	switch {
	case !lead.Bool("IsConverted"):
		rec.Path = pathReconcileUnconverted
		w.log.ConversionEvent("reconcile_unconverted", payload.LeadID, 0)
	case lead.Str("ConvertedAccountId") != "" && lead.Str("ConvertedAccountId") != payload.AccountID:
		rec.Path = pathReconcileDuplicate
		rec.FailureReason = fmt.Sprintf("late conversion produced account %s alongside %s",
			lead.Str("ConvertedAccountId"), payload.AccountID)
		w.log.Warn("late lead conversion duplicated account",
			"lead_id", payload.LeadID,
			"provisioned_account_id", payload.AccountID,
			"converted_account_id", lead.Str("ConvertedAccountId"),
		)
	default:
		rec.Path = pathReconcileConverted
		w.log.ConversionEvent("reconcile_converted", payload.LeadID, 0)
	}

	if w.journal == nil {
		return nil
	}
	if err := w.journal.RecordAttempt(ctx, rec); err != nil {
		w.log.Error("reconcile journal write failed", "lead_id", payload.LeadID, "error", err)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("reconcile worker stopped", "error", err)
	}
}
