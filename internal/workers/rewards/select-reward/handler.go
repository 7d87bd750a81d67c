package selectreward

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reward-management-api/internal/common/camunda"
	"reward-management-api/internal/common/config"
	"reward-management-api/internal/common/errors"
	"reward-management-api/internal/common/logger"
	"reward-management-api/internal/common/metrics"
	"reward-management-api/internal/common/observability"
	"reward-management-api/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "select-reward"

// Pipeline is the reward selection flow the handler delegates to.
type Pipeline interface {
	Execute(ctx context.Context, req *models.RewardSelectionRequest) (string, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	camunda   *camunda.Client
	pipeline  Pipeline
	obs       *observability.Observability
	jobWorker *camunda.CamundaWorker
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	CustomConfig  *Config
	Logger        logger.Logger
	Pipeline      Pipeline
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := ConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required for %s", TaskType)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:   workerConfig,
		logger:   loggerInstance.WithFields(map[string]interface{}{"worker": TaskType}),
		camunda:  opts.Camunda,
		pipeline: opts.Pipeline,
		obs:      opts.Observability,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing reward selection job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.execute(ctx, job.GetVariables())
	metrics.RewardSelections.WithLabelValues("job", Outcome(err)).Inc()
	h.obs.RecordPipelineRun(ctx, "job", Outcome(err))
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, Outcome(err)).Inc()
		h.throwError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// execute parses job variables and runs the pipeline.
func (h *Handler) execute(ctx context.Context, variables string) (*Output, error) {
	req, err := ParseSelection([]byte(variables))
	if err != nil {
		return nil, err
	}

	ack, err := h.pipeline.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	return &Output{
		Acknowledgment: ack,
		RewardID:       req.SelectedRewardDealID,
		UserID:         req.UserID,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Reward selection job completed", map[string]interface{}{
		"jobKey":   job.GetKey(),
		"rewardId": output.RewardID,
	})
}

// throwError raises a BPMN error instead of failing the job, so the engine
// never replays a submission on its own.
func (h *Handler) throwError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	bpmnErr := errors.ConvertToBPMNError(err)

	h.logger.Error("Reward selection job failed", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"retryable":    bpmnErr.Retryable,
	})

	cmd := client.NewThrowErrorCommand().
		JobKey(job.GetKey()).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(fmt.Sprintf("[%s] %s", bpmnErr.Code, bpmnErr.Message))

	if varsJSON, marshalErr := json.Marshal(bpmnErr.ToErrorVariables()); marshalErr == nil {
		if cmdWithVars, varErr := cmd.VariablesFromString(string(varsJSON)); varErr == nil {
			if _, sendErr := cmdWithVars.Send(ctx); sendErr != nil {
				h.logger.Error("Failed to send BPMN error to Camunda", map[string]interface{}{
					"jobKey": job.GetKey(),
					"error":  sendErr.Error(),
				})
			}
			return
		}
	}

	if _, sendErr := cmd.Send(ctx); sendErr != nil {
		h.logger.Error("Failed to send BPMN error to Camunda", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  sendErr.Error(),
		})
	}
}

// Register opens the job worker. It is a no-op when the worker is disabled.
func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("camunda client is required to register %s", TaskType)
	}

	h.jobWorker = camunda.NewWorker(h.camunda, camunda.WorkerOptions{
		TaskType:      TaskType,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
	}, h, h.logger)
	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.jobWorker.Stop()
		h.jobWorker = nil
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

// ConfigFromAppConfig derives worker and pipeline settings from the application
// config unless customConfig is given.
func ConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		cfg.Enabled = appConfig.Camunda.Enabled
		if appConfig.Camunda.MaxJobsActive > 0 {
			cfg.MaxJobsActive = appConfig.Camunda.MaxJobsActive
		}
		if appConfig.Camunda.Timeout > 0 {
			cfg.Timeout = config.GetDuration(appConfig.Camunda.Timeout)
		}
		cfg.RequireAcceptedTnC = appConfig.Pipeline.RequireAcceptedTnC
	}

	return cfg
}
