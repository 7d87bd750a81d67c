package selectreward

import (
	"encoding/json"
	"fmt"
	"strings"

	"reward-management-api/internal/common/errors"
	"reward-management-api/internal/common/validation"
	"reward-management-api/internal/models"
)

// GetInputSchema describes a reward selection. acceptedTnC is optional and
// defaults to false; unknown properties are allowed so process variables pass.
func GetInputSchema() validation.Schema {
	return validation.ObjectSchema(map[string]interface{}{
		"userId":               validation.NonEmptyString(),
		"selectedRewardDealId": validation.NonEmptyString(),
		"acceptedTnC":          map[string]interface{}{"type": "boolean"},
	}, "userId", "selectedRewardDealId")
}

// ParseSelection validates raw JSON against the input schema and decodes it.
// Every failure is a validation error.
func ParseSelection(raw []byte) (*models.RewardSelectionRequest, error) {
	result, err := validation.ValidateBytes(raw, GetInputSchema())
	if err != nil {
		return nil, errors.NewValidationError("request body is not valid JSON")
	}
	if !result.Valid {
		return nil, errors.NewValidationError(result.String())
	}
	if err := rejectCaseVariants(raw); err != nil {
		return nil, err
	}

	var req models.RewardSelectionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	return &req, nil
}

var selectionFields = []string{"userId", "selectedRewardDealId", "acceptedTnC"}

// rejectCaseVariants fails on keys that differ from a selection field only in
// case. The schema matches keys exactly but json.Unmarshal does not, so such a
// key could replace a validated value.
func rejectCaseVariants(raw []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return errors.NewValidationError(err.Error())
	}
	for key := range fields {
		for _, name := range selectionFields {
			if key != name && strings.EqualFold(key, name) {
				return errors.NewValidationError(fmt.Sprintf("%s: field names are case-sensitive, expected %s", key, name))
			}
		}
	}
	return nil
}

func validateSelection(req *models.RewardSelectionRequest) error {
	if req == nil {
		return errors.NewValidationError("reward selection is required")
	}
	result, err := validation.ValidateDocument(req, GetInputSchema())
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	if !result.Valid {
		return errors.NewValidationError(result.String())
	}
	return nil
}
