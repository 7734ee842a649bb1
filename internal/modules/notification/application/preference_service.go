package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

// PreferenceService is the gate between domain events and a user's feed.
// Reads fail open: a missing row or a store error both mean "enabled", so a
// preference lookup can never block delivery.
type PreferenceService struct {
	repo domain.PreferenceRepository
	log  *logrus.Logger
}

func NewPreferenceService(repo domain.PreferenceRepository, log *logrus.Logger) *PreferenceService {
	return &PreferenceService{repo: repo, log: log}
}

// IsEnabled returns the stored in-app flag for the triple, true when no row
// exists, and true on a store error.
func (s *PreferenceService) IsEnabled(ctx context.Context, userID, carrierID uuid.UUID, t domain.NotificationType) bool {
	pref, err := s.repo.GetByTriple(ctx, userID, carrierID, t)
	if err != nil {
		if !errors.Is(err, domain.ErrPreferenceNotFound) {
			s.log.WithError(err).Warn("preference lookup failed, failing open")
		}
		return true
	}
	return pref.Enabled
}

// List returns all preference rows for the user, lazily seeding defaults when
// none exist yet. Defaults keep the in-app channel on so seeding matches the
// fail-open read behavior; email, SMS and push start off until the user opts
// in.
func (s *PreferenceService) List(ctx context.Context, userID, carrierID uuid.UUID) ([]domain.Preference, error) {
	prefs, err := s.repo.ListByUser(ctx, userID, carrierID)
	if err != nil {
		return nil, err
	}
	if len(prefs) > 0 {
		return prefs, nil
	}
	if err := s.InitializeDefaults(ctx, userID, carrierID); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, userID, carrierID)
}

// InitializeDefaults bulk-creates one row per known type.
func (s *PreferenceService) InitializeDefaults(ctx context.Context, userID, carrierID uuid.UUID) error {
	now := time.Now()
	prefs := make([]domain.Preference, 0, len(domain.AllTypes))
	for _, t := range domain.AllTypes {
		prefs = append(prefs, domain.Preference{
			ID:        uuid.New(),
			UserID:    userID,
			CarrierID: carrierID,
			Type:      t,
			Enabled:   true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return s.repo.BulkCreate(ctx, prefs)
}

// PreferenceUpdate is one upsert entry from the preference API.
type PreferenceUpdate struct {
	Type         domain.NotificationType `json:"type"`
	Enabled      bool                    `json:"enabled"`
	EmailEnabled bool                    `json:"email_enabled"`
	SMSEnabled   bool                    `json:"sms_enabled"`
	PushEnabled  bool                    `json:"push_enabled"`
}

// Update upserts each entry by its unique triple and returns the refreshed
// full set.
func (s *PreferenceService) Update(ctx context.Context, userID, carrierID uuid.UUID, updates []PreferenceUpdate) ([]domain.Preference, error) {
	now := time.Now()
	for _, u := range updates {
		if !u.Type.Valid() {
			return nil, domain.ErrInvalidNotification
		}
		pref := &domain.Preference{
			ID:           uuid.New(),
			UserID:       userID,
			CarrierID:    carrierID,
			Type:         u.Type,
			Enabled:      u.Enabled,
			EmailEnabled: u.EmailEnabled,
			SMSEnabled:   u.SMSEnabled,
			PushEnabled:  u.PushEnabled,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.repo.Upsert(ctx, pref); err != nil {
			return nil, err
		}
	}
	return s.repo.ListByUser(ctx, userID, carrierID)
}

// EnabledMap returns the stored in-app flags keyed by type, for batched
// gating. Types without a row are absent and must be treated as enabled by
// the caller.
func (s *PreferenceService) EnabledMap(ctx context.Context, userID, carrierID uuid.UUID) (map[domain.NotificationType]bool, error) {
	return s.repo.EnabledMap(ctx, userID, carrierID)
}

// HasAnyEnabled reports whether the user has at least one channel of any
// type switched on. No stored rows means the user never touched preferences,
// which fails open to true. Only a full set of rows with every channel off
// yields false; the stream endpoint answers 204 in that case.
func (s *PreferenceService) HasAnyEnabled(ctx context.Context, userID, carrierID uuid.UUID) (bool, error) {
	prefs, err := s.repo.ListByUser(ctx, userID, carrierID)
	if err != nil {
		return true, err
	}
	if len(prefs) == 0 {
		return true, nil
	}
	for _, p := range prefs {
		if p.AnyChannel() {
			return true, nil
		}
	}
	return false, nil
}
