// internal/workers/proposal/process-rfp/handler.go
package processrfp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/common/metrics"
	"rfp-proposal-engine/internal/models"
)

const (
	TaskType = "process-rfp"
)

// Runner is the proposal pipeline entrypoint the worker delegates to.
type Runner interface {
	Run(ctx context.Context, rfpID string) (*models.ProposalResult, error)
}

type Handler struct {
	config   *Config
	runner   Runner
	errorsFn *errors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, runner Runner, log logger.Logger) *Handler {
	workerLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		runner:   runner,
		errorsFn: errors.NewErrorHandler(workerLog),
		logger:   workerLog,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "VALIDATION_ERROR").Inc()
		h.errorsFn.HandleJobError(ctx, client, job,
			errors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		code := errors.CodeOf(err)
		if code == "" {
			code = "UNKNOWN_ERROR"
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
		h.errorsFn.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.RFPID == "" {
		return nil, errors.NewValidationError("rfpId is required")
	}

	result, err := h.runner.Run(ctx, input.RFPID)
	if err != nil {
		return nil, err
	}

	return &Output{
		RunID:        result.RunID,
		RFPID:        result.RFPID,
		Status:       string(result.Status),
		MatchedItems: result.MatchedCount(),
		TotalItems:   len(result.Matches),
		GrandTotal:   result.GrandTotal,
		Degraded:     result.Degraded,
		HasNarrative: result.Narrative != nil,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
