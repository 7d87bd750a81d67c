package selectreward

import (
	"reward-management-api/internal/common/logger"
	"reward-management-api/internal/common/observability"
)

// AcknowledgmentMessage is returned to the caller once the vendor accepted the reward.
const AcknowledgmentMessage = "reward selection received successfully"

// Output is the job result written back to the process instance.
type Output struct {
	Acknowledgment string `json:"acknowledgment"`
	RewardID       string `json:"rewardId"`
	UserID         string `json:"userId"`
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Lookup        UserLookup
	Submitter     RewardSubmitter
	Observability *observability.Observability
}
