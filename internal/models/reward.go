package models

// RewardSelectionRequest is what a member submits when picking a reward deal.
type RewardSelectionRequest struct {
	UserID               string `json:"userId"`
	SelectedRewardDealID string `json:"selectedRewardDealId"`
	AcceptedTnC          bool   `json:"acceptedTnC"`
}

// UserProfile is the loyalty service's view of a member.
type UserProfile struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// RewardRecord is the payload accepted by the vendor-management service.
type RewardRecord struct {
	RewardID  string `json:"rewardId"`
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}
