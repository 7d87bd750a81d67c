package selectreward

import (
	"context"
	"fmt"
	"time"

	"reward-management-api/internal/common/errors"
	"reward-management-api/internal/common/logger"
	"reward-management-api/internal/common/loyalty"
	"reward-management-api/internal/common/metrics"
	"reward-management-api/internal/common/observability"
	"reward-management-api/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const (
	stageValidate  = "validate"
	stageLookup    = "lookup"
	stageTransform = "transform"
	stageSubmit    = "submit"
)

// UserLookup is the enrichment call.
type UserLookup interface {
	FetchUser(ctx context.Context, userID string) (*models.UserProfile, error)
}

// RewardSubmitter is the submission call.
type RewardSubmitter interface {
	SubmitReward(ctx context.Context, reward *models.RewardRecord) error
}

// Service runs validate, lookup, transform and submit in order and stops at
// the first failure. It holds no per-request state.
type Service struct {
	config    *Config
	logger    logger.Logger
	lookup    UserLookup
	submitter RewardSubmitter
	obs       *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) (*Service, error) {
	if deps.Lookup == nil {
		return nil, fmt.Errorf("user lookup is required")
	}
	if deps.Submitter == nil {
		return nil, fmt.Errorf("reward submitter is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Service{
		config:    config,
		logger:    log,
		lookup:    deps.Lookup,
		submitter: deps.Submitter,
		obs:       deps.Observability,
	}, nil
}

// Execute handles one reward selection and returns AcknowledgmentMessage on success.
func (s *Service) Execute(ctx context.Context, req *models.RewardSelectionRequest) (ack string, err error) {
	ctx, span := s.obs.StartSpan(ctx, "reward.select")
	defer func() { observability.EndSpan(span, err) }()

	log := logger.WithTraceContext(ctx, s.logger)

	err = s.stage(ctx, stageValidate, func(context.Context) error {
		return s.validate(req)
	})
	if err != nil {
		log.Warn("Reward selection rejected", map[string]interface{}{
			"error": err.Error(),
		})
		return "", err
	}

	log = log.WithFields(map[string]interface{}{
		"userId":               req.UserID,
		"selectedRewardDealId": req.SelectedRewardDealID,
	})
	span.SetAttributes(
		attribute.String("reward.user_id", req.UserID),
		attribute.String("reward.deal_id", req.SelectedRewardDealID),
	)

	var user *models.UserProfile
	err = s.stage(ctx, stageLookup, func(ctx context.Context) error {
		profile, lookupErr := s.lookup.FetchUser(ctx, req.UserID)
		if lookupErr != nil {
			return lookupErr
		}
		if profile == nil || profile.UserID != req.UserID {
			return errors.NewUpstreamBadBodyError(loyalty.ServiceName,
				fmt.Errorf("profile does not belong to requested user %q", req.UserID))
		}
		user = profile
		return nil
	})
	if err != nil {
		log.Error("User lookup failed", map[string]interface{}{
			"errorCode": string(errors.AsStandardError(err).Code),
			"error":     err.Error(),
		})
		return "", err
	}

	_, endTransform := s.startStage(ctx, stageTransform)
	reward := Combine(*user, *req)
	endTransform(nil)

	err = s.stage(ctx, stageSubmit, func(ctx context.Context) error {
		return s.submitter.SubmitReward(ctx, &reward)
	})
	if err != nil {
		log.Error("Reward submission failed", map[string]interface{}{
			"rewardId":  reward.RewardID,
			"errorCode": string(errors.AsStandardError(err).Code),
			"error":     err.Error(),
		})
		return "", err
	}

	log.Info("Reward selection forwarded to vendor", map[string]interface{}{
		"rewardId": reward.RewardID,
	})
	return AcknowledgmentMessage, nil
}

func (s *Service) validate(req *models.RewardSelectionRequest) error {
	if err := validateSelection(req); err != nil {
		return err
	}
	if s.config.RequireAcceptedTnC && !req.AcceptedTnC {
		return errors.NewTermsNotAcceptedError(req.UserID)
	}
	return nil
}

// stage times fn and wraps it in a child span.
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, end := s.startStage(ctx, name)
	err := fn(ctx)
	end(err)
	return err
}

// startStage opens the stage span. The returned func ends it and records the
// stage duration with the given outcome.
func (s *Service) startStage(ctx context.Context, name string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.obs.StartSpan(ctx, "reward.pipeline."+name)

	return ctx, func(err error) {
		observability.EndSpan(span, err)
		elapsed := time.Since(start)
		metrics.PipelineStageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		s.obs.RecordStageDuration(ctx, name, elapsed, stageStatus(err))
	}
}

func stageStatus(err error) string {
	if err == nil {
		return "ok"
	}
	return errors.Kind(err)
}

// Outcome is the metric label for a finished pipeline run.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(errors.AsStandardError(err).Code)
}
