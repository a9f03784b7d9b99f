package setting

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
	apperrors "github.com/vendorconnect/jobs/pkg/errors"
)

// Service reads tenant settings through a TTL cache. A zero TTL disables the
// cache.
type Service struct {
	repo  repository.SettingRepository
	cache *cache.Cache
}

func NewService(repo repository.SettingRepository, ttl time.Duration) *Service {
	s := &Service{repo: repo}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

func cacheKey(adminID uuid.UUID, key string) string {
	return adminID.String() + ":" + key
}

// Get returns the raw value and whether the tenant has the setting at all.
func (s *Service) Get(ctx context.Context, adminID uuid.UUID, key string) (string, bool, error) {
	ck := cacheKey(adminID, key)
	if s.cache != nil {
		if cached, found := s.cache.Get(ck); found {
			setting, _ := cached.(*model.Setting)
			if setting == nil {
				return "", false, nil
			}
			return setting.Value, true, nil
		}
	}

	setting, err := s.repo.Get(ctx, adminID, key)
	if err != nil && !apperrors.IsNotFound(err) {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	if s.cache != nil {
		// misses are cached too, as a nil entry
		s.cache.Set(ck, setting, cache.DefaultExpiration)
	}
	if setting == nil {
		return "", false, nil
	}
	return setting.Value, true, nil
}

// Bool reads a flag, falling back to def when the setting is absent.
func (s *Service) Bool(ctx context.Context, adminID uuid.UUID, key string, def bool) (bool, error) {
	v, ok, err := s.Get(ctx, adminID, key)
	if err != nil || !ok {
		return def, err
	}
	b, valid := ParseBool(v)
	if !valid {
		return def, apperrors.BadRequest(fmt.Sprintf("setting %s: %q is not a boolean", key, v), nil)
	}
	return b, nil
}

// Int reads an integer, falling back to def when the setting is absent or
// blank.
func (s *Service) Int(ctx context.Context, adminID uuid.UUID, key string, def int) (int, error) {
	v, ok, err := s.Get(ctx, adminID, key)
	if err != nil || !ok || strings.TrimSpace(v) == "" {
		return def, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, apperrors.BadRequest(fmt.Sprintf("setting %s: %q is not a number", key, v), err)
	}
	return n, nil
}

// Tenants lists every tenant that has key set and primes the cache with the
// values.
func (s *Service) Tenants(ctx context.Context, key string) ([]*model.Setting, error) {
	settings, err := s.repo.ListByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list setting %s: %w", key, err)
	}
	if s.cache != nil {
		for _, setting := range settings {
			s.cache.Set(cacheKey(setting.AdminID, key), setting, cache.DefaultExpiration)
		}
	}
	return settings, nil
}

// ParseBool accepts the spellings the settings screen has stored over time.
func ParseBool(v string) (value bool, valid bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off", "":
		return false, true
	}
	return false, false
}
