package selectreward

import "reward-management-api/internal/models"

// Combine builds the vendor record from a fetched profile and the selection.
// rewardId is the selected deal id verbatim; userId comes from the profile.
func Combine(user models.UserProfile, selection models.RewardSelectionRequest) models.RewardRecord {
	return models.RewardRecord{
		RewardID:  selection.SelectedRewardDealID,
		UserID:    user.UserID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
}
