package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/mukofot/internal/cache"
)

// DraftTTL is how long an unfinished wizard draft survives in the cache.
const DraftTTL = time.Hour

// DraftStep1 holds the personal-info step of the wizard.
type DraftStep1 struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Pinfl        string `json:"pinfl"`
	PhoneNumber  string `json:"phone_number"`
	Area         string `json:"area"`
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
}

// DraftStep2 holds the activity-info step.
type DraftStep2 struct {
	Activity            string `json:"activity"`
	ActivityDescription string `json:"activity_description"`
}

// DraftFile describes an upload staged in temporary storage. Only metadata is
// cached; the bytes live on disk.
type DraftFile struct {
	OriginalName string `json:"original_name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
}

// DraftStep3 holds the document-upload step.
type DraftStep3 struct {
	RecommendationLetter *DraftFile  `json:"recommendation_letter,omitempty"`
	Certificates         []DraftFile `json:"certificates,omitempty"`
}

// ApplicationDraft accumulates wizard state for one (user, reward) pair.
type ApplicationDraft struct {
	RewardID    uuid.UUID   `json:"reward_id"`
	CurrentStep int         `json:"current_step"`
	Step1       *DraftStep1 `json:"step1,omitempty"`
	Step2       *DraftStep2 `json:"step2,omitempty"`
	Step3       *DraftStep3 `json:"step3,omitempty"`
}

// MissingSteps lists the steps that still lack data, in order.
func (d *ApplicationDraft) MissingSteps() []string {
	var missing []string
	if d.Step1 == nil {
		missing = append(missing, "step1")
	}
	if d.Step2 == nil {
		missing = append(missing, "step2")
	}
	if d.Step3 == nil {
		missing = append(missing, "step3")
	}
	return missing
}

// Complete reports whether every step has been submitted.
func (d *ApplicationDraft) Complete() bool {
	return len(d.MissingSteps()) == 0
}

// StagedFiles returns the temp paths of every upload referenced by the draft.
func (d *ApplicationDraft) StagedFiles() []string {
	if d.Step3 == nil {
		return nil
	}

	var paths []string
	if d.Step3.RecommendationLetter != nil {
		paths = append(paths, d.Step3.RecommendationLetter.Path)
	}
	for _, cert := range d.Step3.Certificates {
		paths = append(paths, cert.Path)
	}
	return paths
}

// DraftStore persists wizard drafts in the cache. The bucket is not locked:
// concurrent step submissions for the same pair race and the last write wins.
type DraftStore struct {
	store cache.Store
}

// NewDraftStore constructs a DraftStore.
func NewDraftStore(store cache.Store) *DraftStore {
	return &DraftStore{store: store}
}

func draftKey(userID, rewardID uuid.UUID) string {
	return fmt.Sprintf("application_draft_%s_%s", userID, rewardID)
}

// Load returns the draft for the pair, or an empty draft when none is cached.
func (s *DraftStore) Load(ctx context.Context, userID, rewardID uuid.UUID) (*ApplicationDraft, error) {
	var draft ApplicationDraft
	found, err := s.store.Get(ctx, draftKey(userID, rewardID), &draft)
	if err != nil {
		return nil, err
	}
	if !found {
		return &ApplicationDraft{RewardID: rewardID}, nil
	}
	return &draft, nil
}

// SaveStep1 merges the personal-info payload into the draft.
func (s *DraftStore) SaveStep1(ctx context.Context, userID, rewardID uuid.UUID, step DraftStep1) (*ApplicationDraft, error) {
	draft, err := s.Load(ctx, userID, rewardID)
	if err != nil {
		return nil, err
	}

	draft.Step1 = &step
	draft.CurrentStep = 1
	return draft, s.save(ctx, userID, rewardID, draft)
}

// SaveStep2 merges the activity payload into the draft.
func (s *DraftStore) SaveStep2(ctx context.Context, userID, rewardID uuid.UUID, step DraftStep2) (*ApplicationDraft, error) {
	draft, err := s.Load(ctx, userID, rewardID)
	if err != nil {
		return nil, err
	}

	draft.Step2 = &step
	draft.CurrentStep = 2
	return draft, s.save(ctx, userID, rewardID, draft)
}

// SaveStep3 merges the upload metadata into the draft.
func (s *DraftStore) SaveStep3(ctx context.Context, userID, rewardID uuid.UUID, step DraftStep3) (*ApplicationDraft, error) {
	draft, err := s.Load(ctx, userID, rewardID)
	if err != nil {
		return nil, err
	}

	draft.Step3 = &step
	draft.CurrentStep = 3
	return draft, s.save(ctx, userID, rewardID, draft)
}

// Clear drops the draft bucket.
func (s *DraftStore) Clear(ctx context.Context, userID, rewardID uuid.UUID) error {
	return s.store.Delete(ctx, draftKey(userID, rewardID))
}

func (s *DraftStore) save(ctx context.Context, userID, rewardID uuid.UUID, draft *ApplicationDraft) error {
	draft.RewardID = rewardID
	return s.store.Set(ctx, draftKey(userID, rewardID), draft, DraftTTL)
}
