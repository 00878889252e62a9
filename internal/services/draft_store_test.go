package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mukofot/internal/cache"
)

func TestDraftStoreLoadEmpty(t *testing.T) {
	store := NewDraftStore(cache.NewMemory())
	userID := uuid.New()
	rewardID := uuid.New()

	draft, err := store.Load(context.Background(), userID, rewardID)
	require.NoError(t, err)
	assert.Equal(t, rewardID, draft.RewardID)
	assert.Equal(t, 0, draft.CurrentStep)
	assert.Equal(t, []string{"step1", "step2", "step3"}, draft.MissingSteps())
	assert.False(t, draft.Complete())
}

func TestDraftStoreStepAccumulation(t *testing.T) {
	store := NewDraftStore(cache.NewMemory())
	ctx := context.Background()
	userID := uuid.New()
	rewardID := uuid.New()

	draft, err := store.SaveStep1(ctx, userID, rewardID, DraftStep1{
		FirstName:   "Aziz",
		LastName:    "Karimov",
		Pinfl:       "12345678901234",
		PhoneNumber: "+998901234567",
		Area:        "Tashkent city",
		District:    "Yunusabad",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, draft.CurrentStep)
	assert.Equal(t, []string{"step2", "step3"}, draft.MissingSteps())

	draft, err = store.SaveStep2(ctx, userID, rewardID, DraftStep2{
		Activity:            "Community volunteering",
		ActivityDescription: "Organized weekly neighborhood cleanups for the past two years.",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, draft.CurrentStep)
	require.NotNil(t, draft.Step1, "earlier steps survive later saves")
	assert.Equal(t, "Aziz", draft.Step1.FirstName)
	assert.Equal(t, []string{"step3"}, draft.MissingSteps())

	draft, err = store.SaveStep3(ctx, userID, rewardID, DraftStep3{
		RecommendationLetter: &DraftFile{OriginalName: "letter.pdf", Path: "/tmp/rec_1.pdf", Size: 1024},
		Certificates: []DraftFile{
			{OriginalName: "cert1.pdf", Path: "/tmp/cert_1.pdf", Size: 2048},
			{OriginalName: "cert2.jpg", Path: "/tmp/cert_2.jpg", Size: 4096},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, draft.CurrentStep)
	assert.True(t, draft.Complete())
	assert.Empty(t, draft.MissingSteps())
}

func TestDraftStoreLastWriteWins(t *testing.T) {
	store := NewDraftStore(cache.NewMemory())
	ctx := context.Background()
	userID := uuid.New()
	rewardID := uuid.New()

	_, err := store.SaveStep2(ctx, userID, rewardID, DraftStep2{Activity: "first"})
	require.NoError(t, err)
	_, err = store.SaveStep2(ctx, userID, rewardID, DraftStep2{Activity: "second"})
	require.NoError(t, err)

	draft, err := store.Load(ctx, userID, rewardID)
	require.NoError(t, err)
	require.NotNil(t, draft.Step2)
	assert.Equal(t, "second", draft.Step2.Activity)
}

func TestDraftStoreIsolatedPerPair(t *testing.T) {
	store := NewDraftStore(cache.NewMemory())
	ctx := context.Background()
	userID := uuid.New()
	rewardA := uuid.New()
	rewardB := uuid.New()

	_, err := store.SaveStep1(ctx, userID, rewardA, DraftStep1{FirstName: "Aziz"})
	require.NoError(t, err)

	draft, err := store.Load(ctx, userID, rewardB)
	require.NoError(t, err)
	assert.Nil(t, draft.Step1, "drafts for different rewards must not bleed into each other")
}

func TestDraftStoreClear(t *testing.T) {
	store := NewDraftStore(cache.NewMemory())
	ctx := context.Background()
	userID := uuid.New()
	rewardID := uuid.New()

	_, err := store.SaveStep1(ctx, userID, rewardID, DraftStep1{FirstName: "Aziz"})
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx, userID, rewardID))

	draft, err := store.Load(ctx, userID, rewardID)
	require.NoError(t, err)
	assert.Nil(t, draft.Step1)
	assert.Equal(t, 0, draft.CurrentStep)
}

func TestStagedFiles(t *testing.T) {
	draft := &ApplicationDraft{}
	assert.Nil(t, draft.StagedFiles())

	draft.Step3 = &DraftStep3{
		Certificates: []DraftFile{{Path: "/tmp/cert_1.pdf"}},
	}
	assert.Equal(t, []string{"/tmp/cert_1.pdf"}, draft.StagedFiles())

	draft.Step3.RecommendationLetter = &DraftFile{Path: "/tmp/rec_1.pdf"}
	assert.Equal(t, []string{"/tmp/rec_1.pdf", "/tmp/cert_1.pdf"}, draft.StagedFiles())
}
