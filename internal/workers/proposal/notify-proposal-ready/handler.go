// internal/workers/proposal/notify-proposal-ready/handler.go
package notifyproposalready

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
)

const (
	TaskType = "notify-proposal-ready"
)

// EmailSender sends the proposal-ready email.
type EmailSender interface {
	SendTextEmail(ctx context.Context, from, to, subject, body string) error
}

// SMSSender sends the proposal-ready text message.
type SMSSender interface {
	PublishSMS(ctx context.Context, phoneNumber, message string) error
}

type Handler struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		code := errors.CodeOf(err)
		if code == "" {
			code = "NOTIFICATION_FAILED"
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
		h.failJob(client, job, string(code), err.Error())
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.RunID == "" {
		return nil, errors.NewValidationError("runId is required")
	}

	output := &Output{}
	subject := fmt.Sprintf("Proposal ready for %s", input.RFPID)
	body := fmt.Sprintf(
		"Proposal run %s for RFP %s finished with status %s. Grand total: %.2f.",
		input.RunID, input.RFPID, input.Status, input.GrandTotal,
	)

	if h.config.EmailEnabled && input.RecipientEmail != "" && h.email != nil {
		if err := h.email.SendTextEmail(ctx, h.config.FromEmail, input.RecipientEmail, subject, body); err != nil {
			h.logger.Error("email notification failed", map[string]interface{}{
				"runId": input.RunID,
				"error": err.Error(),
			})
		} else {
			output.EmailSent = true
		}
	}

	if h.config.SMSEnabled && input.RecipientPhone != "" && h.sms != nil {
		if err := h.sms.PublishSMS(ctx, input.RecipientPhone, body); err != nil {
			h.logger.Error("sms notification failed", map[string]interface{}{
				"runId": input.RunID,
				"error": err.Error(),
			})
		} else {
			output.SMSSent = true
		}
	}

	h.logger.Info("notifications dispatched", map[string]interface{}{
		"runId":     input.RunID,
		"emailSent": output.EmailSent,
		"smsSent":   output.SMSSent,
	})
	return output, nil
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
