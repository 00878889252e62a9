package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mukofot/internal/models"
)

func testApplication(status string) (*models.Application, *models.Reward) {
	app := &models.Application{
		UserID:   uuid.New(),
		RewardID: uuid.New(),
		Status:   status,
		Area:     "Tashkent city",
		District: "Yunusabad",
		Activity: "Community volunteering",
	}
	app.ID = uuid.New()
	reward := &models.Reward{
		Name:        "Mard o'g'lon",
		Description: "State award for outstanding young men",
	}
	reward.ID = app.RewardID
	return app, reward
}

func TestStatusChangeNotificationReviewStages(t *testing.T) {
	for _, status := range []string{models.StatusNeighborhood, models.StatusDistrict, models.StatusRegion} {
		t.Run(status, func(t *testing.T) {
			app, reward := testApplication(status)

			n, ok := statusChangeNotification(app, reward, models.StatusSubmitted)
			require.True(t, ok)
			assert.Equal(t, models.NotificationApplicationUpdated, n.Type)
			assert.Equal(t, app.UserID, n.RecipientID)
			assert.Equal(t, "application", n.SourceType)
			assert.Equal(t, app.ID, n.SourceID)
			assert.Contains(t, n.Title, models.StatusLabels[status])
			assert.Equal(t, status, n.Extra["new_status"])
			assert.Equal(t, models.StatusSubmitted, n.Extra["old_status"])
		})
	}
}

func TestStatusChangeNotificationFinalReview(t *testing.T) {
	app, reward := testApplication(models.StatusFinalReview)

	n, ok := statusChangeNotification(app, reward, models.StatusRegion)
	require.True(t, ok)
	assert.Equal(t, models.NotificationApplicationUpdated, n.Type)
	assert.Contains(t, n.Title, "final review")
}

func TestStatusChangeNotificationAwarded(t *testing.T) {
	app, reward := testApplication(models.StatusAwarded)

	n, ok := statusChangeNotification(app, reward, models.StatusFinalReview)
	require.True(t, ok)
	assert.Equal(t, models.NotificationRewardWon, n.Type)
	assert.Contains(t, n.Title, "Congratulations")
	assert.Contains(t, n.Title, reward.Name)
	assert.Equal(t, reward.Description, n.Extra["reward_description"])
	assert.NotEmpty(t, n.Extra["won_date"])
}

func TestStatusChangeNotificationRejected(t *testing.T) {
	app, reward := testApplication(models.StatusRejected)

	n, ok := statusChangeNotification(app, reward, models.StatusDistrict)
	require.True(t, ok)
	assert.Equal(t, models.NotificationApplicationRejected, n.Type)
	assert.Contains(t, n.Title, "rejected")
	assert.NotEmpty(t, n.Extra["rejected_date"])
}

func TestStatusChangeNotificationNoVariant(t *testing.T) {
	// Moving back to submitted has no user-facing variant.
	app, reward := testApplication(models.StatusSubmitted)

	n, ok := statusChangeNotification(app, reward, models.StatusNeighborhood)
	assert.False(t, ok)
	assert.Nil(t, n)
}
