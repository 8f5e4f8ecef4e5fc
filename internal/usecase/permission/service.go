package permission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"govcore/internal/bootstrap/logging"
	"govcore/internal/domain/governance"
	"govcore/internal/errs"
	"govcore/internal/ports"
)

// Policy carries the resolver's tunables from config.
type Policy struct {
	// OrgSettingsTTL bounds how long cached org default settings are served.
	OrgSettingsTTL time.Duration
}

// Service resolves an agent's effective access for a repo and for pushing
// to specific branches. Org default settings go through an injected cache
// so tests can substitute a deterministic stub.
type Service struct {
	store  ports.AccessStore
	cache  ports.Cache
	clock  ports.Clock
	policy Policy
}

func NewService(store ports.AccessStore, cache ports.Cache, clock ports.Clock, policy Policy) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		clock:  clock,
		policy: policy,
	}
}

// Resolution is the outcome of the permission waterfall.
type Resolution struct {
	Level  governance.AccessLevel
	Source governance.PermissionSource
}

// Resolve walks the waterfall: explicit grant, maintainer row, then the
// repo's agent-access policy (falling back to the org default). First
// match wins. An explicit grant observed expired is deleted before the
// walk continues.
func (s *Service) Resolve(ctx context.Context, agentID uint64, repoID uint64) (Resolution, error) {
	if ctx == nil {
		return Resolution{}, errors.New("context is required")
	}

	access, found, err := s.store.GetRepoAccess(ctx, repoID, agentID)
	if err != nil {
		return Resolution{}, errs.Wrap(err, "load explicit grant")
	}
	if found {
		if access.ExpiresAt != nil && !s.clock.Now().Before(*access.ExpiresAt) {
			if err := s.store.DeleteRepoAccess(ctx, repoID, agentID); err != nil {
				return Resolution{}, errs.Wrap(err, "delete expired grant")
			}
		} else {
			return Resolution{Level: access.Level, Source: governance.SourceExplicit}, nil
		}
	}

	maintainer, found, err := s.store.GetMaintainer(ctx, repoID, agentID)
	if err != nil {
		return Resolution{}, errs.Wrap(err, "load maintainer row")
	}
	if found {
		return Resolution{
			Level:  maintainer.Role.AccessLevel(),
			Source: governance.SourceMaintainer,
		}, nil
	}

	repo, err := s.store.GetRepo(ctx, repoID)
	if err != nil {
		if errors.Is(err, ports.ErrRepoNotFound) {
			return Resolution{Level: governance.AccessNone, Source: governance.SourceNotFound}, nil
		}
		return Resolution{}, errs.Wrap(err, "load repo")
	}

	org, err := s.orgSettings(ctx, repo.OrgID)
	if err != nil {
		return Resolution{}, errs.Wrap(err, "load org settings")
	}

	mode := repo.AgentAccess
	if mode == "" {
		mode = org.DefaultAgentAccess
	}

	switch mode {
	case governance.AgentAccessPublic:
		return Resolution{Level: governance.AccessWrite, Source: governance.SourcePublic}, nil

	case governance.AgentAccessKarmaThreshold:
		minKarma := org.DefaultMinKarma
		if repo.MinKarma != nil {
			minKarma = *repo.MinKarma
		}

		var karma int64
		agent, found, err := s.store.GetAgent(ctx, agentID)
		if err != nil {
			return Resolution{}, errs.Wrap(err, "load agent karma")
		}
		if found {
			karma = agent.Karma
		}

		if karma >= minKarma {
			return Resolution{Level: governance.AccessWrite, Source: governance.SourceKarma}, nil
		}
		if repo.IsPrivate {
			return Resolution{Level: governance.AccessNone, Source: governance.SourceKarmaBelowThreshold}, nil
		}
		return Resolution{Level: governance.AccessRead, Source: governance.SourceKarmaBelowThreshold}, nil

	case governance.AgentAccessAllowlist:
		// Allowlisting is expressed only through explicit grants, which the
		// waterfall already checked.
		return Resolution{Level: governance.AccessNone, Source: governance.SourceNotAllowlisted}, nil

	default:
		if org.IsPlatform && !repo.IsPrivate {
			return Resolution{Level: governance.AccessRead, Source: governance.SourcePlatformPublic}, nil
		}
		if mode == "" {
			mode = governance.AgentAccessNone
		}
		return Resolution{Level: governance.AccessNone, Source: governance.PermissionSource(mode)}, nil
	}
}

const orgSettingsKeyPrefix = "org_settings:"

// orgSettings reads org defaults through the cache. Cache failures fall
// back to the store; resolution never depends on the cache being healthy.
func (s *Service) orgSettings(ctx context.Context, orgID uint64) (ports.Org, error) {
	key := fmt.Sprintf("%s%d", orgSettingsKeyPrefix, orgID)

	if raw, found, err := s.cache.Get(ctx, key); err != nil {
		logging.Warn(ctx, "org settings cache read failed", slog.Any("err", errs.Loggable(err)))
	} else if found {
		var org ports.Org
		if err := json.Unmarshal([]byte(raw), &org); err == nil {
			return org, nil
		}
		logging.Warn(ctx, "org settings cache entry malformed", slog.String("key", key))
	}

	org, err := s.store.GetOrg(ctx, orgID)
	if err != nil {
		return ports.Org{}, err
	}

	if raw, err := json.Marshal(org); err == nil {
		if err := s.cache.Set(ctx, key, string(raw), s.policy.OrgSettingsTTL); err != nil {
			logging.Warn(ctx, "org settings cache write failed", slog.Any("err", errs.Loggable(err)))
		}
	}
	return org, nil
}

// InvalidateOrgSettings drops the cached defaults for an org, for callers
// that just mutated them.
func (s *Service) InvalidateOrgSettings(ctx context.Context, orgID uint64) error {
	return s.cache.Delete(ctx, fmt.Sprintf("%s%d", orgSettingsKeyPrefix, orgID))
}
