package selectreward

import (
	"testing"

	"reward-management-api/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCombine(t *testing.T) {
	user := models.UserProfile{UserID: "u1", FirstName: "Ann", LastName: "Lee", Email: "ann@x.com"}
	selection := models.RewardSelectionRequest{UserID: "u1", SelectedRewardDealID: "deal-7", AcceptedTnC: true}

	got := Combine(user, selection)

	assert.Equal(t, models.RewardRecord{
		RewardID:  "deal-7",
		UserID:    "u1",
		FirstName: "Ann",
		LastName:  "Lee",
		Email:     "ann@x.com",
	}, got)
}

func TestCombine_NoNormalization(t *testing.T) {
	user := models.UserProfile{UserID: "u2", FirstName: "", LastName: "", Email: ""}
	selection := models.RewardSelectionRequest{UserID: "u2", SelectedRewardDealID: "  Deal/7 "}

	got := Combine(user, selection)

	assert.Equal(t, "  Deal/7 ", got.RewardID)
	assert.Equal(t, "u2", got.UserID)
	assert.Empty(t, got.FirstName)
	assert.Empty(t, got.Email)
}
