package prefs

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/telemart/storefront-gateway/pkg/errors"
	"github.com/telemart/storefront-gateway/pkg/logger"
	"github.com/telemart/storefront-gateway/pkg/redis"
)

// PreferencesDTO is the client-facing view of a user's durable flags.
type PreferencesDTO struct {
	WriteAccessAsked bool   `json:"write_access_asked"`
	LanguageCode     string `json:"language_code,omitempty"`
}

// Cache is the slice of the redis client used for read-through caching.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	PrefsKey(userID int64) string
}

// ServiceParams groups dependencies for the preference service.
type ServiceParams struct {
	Repo   *Repository
	Cache  Cache
	Logger *logger.Logger
}

// Service exposes durable per-user preferences: the write-access consent
// flag and the stored language code.
type Service interface {
	Preferences(ctx context.Context, userID int64) (PreferencesDTO, error)
	MarkWriteAccessAsked(ctx context.Context, userID int64) error
	SetLanguage(ctx context.Context, userID int64, code string) error
}

type service struct {
	repo  *Repository
	cache Cache
	logg  *logger.Logger
}

const cacheTTL = 5 * time.Minute

// NewService builds a preference service with the required dependencies.
// Cache is optional; without it every read hits the database.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prefs repo is required")
	}
	return &service{
		repo:  params.Repo,
		cache: params.Cache,
		logg:  params.Logger,
	}, nil
}

// Preferences returns the user's flags, reading through the cache when one
// is wired. Cache failures degrade to a database read.
func (s *service) Preferences(ctx context.Context, userID int64) (PreferencesDTO, error) {
	if dto, ok := s.cached(ctx, userID); ok {
		return dto, nil
	}

	record, err := s.repo.Find(ctx, userID)
	if err != nil {
		return PreferencesDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}

	dto := PreferencesDTO{
		WriteAccessAsked: record.WriteAccessAsked,
		LanguageCode:     record.LanguageCode,
	}
	s.fillCache(ctx, userID, dto)
	return dto, nil
}

// MarkWriteAccessAsked latches the consent-prompt flag. The flag only ever
// transitions to true; asking once is the contract with the webview.
func (s *service) MarkWriteAccessAsked(ctx context.Context, userID int64) error {
	record, err := s.repo.Find(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}
	if record.WriteAccessAsked {
		return nil
	}

	record.WriteAccessAsked = true
	if err := s.repo.Upsert(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferences")
	}
	s.dropCache(ctx, userID)
	return nil
}

// SetLanguage stores the user's preferred language code.
func (s *service) SetLanguage(ctx context.Context, userID int64, code string) error {
	record, err := s.repo.Find(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load preferences")
	}
	if record.LanguageCode == code {
		return nil
	}

	record.LanguageCode = code
	if err := s.repo.Upsert(ctx, record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save preferences")
	}
	s.dropCache(ctx, userID)
	return nil
}

func (s *service) cached(ctx context.Context, userID int64) (PreferencesDTO, bool) {
	if s.cache == nil {
		return PreferencesDTO{}, false
	}
	raw, err := s.cache.Get(ctx, s.cache.PrefsKey(userID))
	if err != nil {
		if !redis.Nil(err) && s.logg != nil {
			s.logg.Warn(ctx, "prefs cache read failed: "+err.Error())
		}
		return PreferencesDTO{}, false
	}
	var dto PreferencesDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return PreferencesDTO{}, false
	}
	return dto, true
}

func (s *service) fillCache(ctx context.Context, userID int64, dto PreferencesDTO) {
	if s.cache == nil {
		return
	}
	blob, err := json.Marshal(dto)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.PrefsKey(userID), string(blob), cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "prefs cache write failed: "+err.Error())
	}
}

func (s *service) dropCache(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.PrefsKey(userID)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "prefs cache invalidation failed: "+err.Error())
	}
}
