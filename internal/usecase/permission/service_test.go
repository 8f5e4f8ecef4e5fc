package permission

import (
	"context"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"govcore/internal/domain/governance"
	"govcore/internal/infrastructure/persistence/sqlite/model"
	sqliterepo "govcore/internal/infrastructure/persistence/sqlite/repository"
)

type testCache struct {
	data map[string]string
}

func newTestCache() *testCache {
	return &testCache{
		data: make(map[string]string),
	}
}

func (c *testCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *testCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *testCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func setupService(t *testing.T) (*Service, *gorm.DB, *testClock, *testCache) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Org{},
		&model.Agent{},
		&model.Repo{},
		&model.RepoAccess{},
		&model.Maintainer{},
		&model.BranchRule{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	cache := newTestCache()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(sqliterepo.NewAccessRepository(db), cache, clock, Policy{OrgSettingsTTL: 5 * time.Minute})
	return svc, db, clock, cache
}

func seedRepo(t *testing.T, db *gorm.DB, org model.Org, repo model.Repo) (uint64, uint64) {
	t.Helper()
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	repo.OrgID = org.OrgID
	if err := db.Create(&repo).Error; err != nil {
		t.Fatalf("seed repo: %v", err)
	}
	return org.OrgID, repo.RepoID
}

func seedAgent(t *testing.T, db *gorm.DB, handle string, karma string) uint64 {
	t.Helper()
	agent := model.Agent{Handle: handle, Karma: &karma}
	if err := db.Create(&agent).Error; err != nil {
		t.Fatalf("seed agent: %v", err)
	}
	return agent.AgentID
}

func TestResolveExplicitGrantWins(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	_, repoID := seedRepo(t, db, model.Org{Name: "org"}, model.Repo{Name: "r", OwnershipModel: "solo"})
	agentID := seedAgent(t, db, "bot", "0")

	if err := db.Create(&model.Maintainer{RepoID: repoID, AgentID: agentID, Role: "maintainer"}).Error; err != nil {
		t.Fatalf("seed maintainer: %v", err)
	}
	if err := db.Create(&model.RepoAccess{RepoID: repoID, AgentID: agentID, AccessLevel: "read"}).Error; err != nil {
		t.Fatalf("seed grant: %v", err)
	}

	got, err := svc.Resolve(ctx, agentID, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Level != governance.AccessRead || got.Source != governance.SourceExplicit {
		t.Fatalf("Resolve() = %+v, want explicit read", got)
	}
}

func TestResolveExpiredGrantDeletedAndFallsThrough(t *testing.T) {
	svc, db, clock, _ := setupService(t)
	ctx := context.Background()

	_, repoID := seedRepo(t, db, model.Org{Name: "org"}, model.Repo{Name: "r", OwnershipModel: "solo"})
	agentID := seedAgent(t, db, "bot", "0")

	expired := clock.now.Add(-time.Hour)
	if err := db.Create(&model.RepoAccess{RepoID: repoID, AgentID: agentID, AccessLevel: "admin", ExpiresAt: &expired}).Error; err != nil {
		t.Fatalf("seed grant: %v", err)
	}
	if err := db.Create(&model.Maintainer{RepoID: repoID, AgentID: agentID, Role: "maintainer"}).Error; err != nil {
		t.Fatalf("seed maintainer: %v", err)
	}

	got, err := svc.Resolve(ctx, agentID, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Level != governance.AccessMaintain || got.Source != governance.SourceMaintainer {
		t.Fatalf("Resolve() = %+v, want maintainer maintain", got)
	}

	var remaining int64
	if err := db.Model(&model.RepoAccess{}).Where("repo_id = ? AND agent_id = ?", repoID, agentID).Count(&remaining).Error; err != nil {
		t.Fatalf("count grants: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expired grant still present, count = %d", remaining)
	}
}

func TestResolveKarmaBoundary(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	minKarma := "50"
	_, repoID := seedRepo(t, db,
		model.Org{Name: "org", DefaultAgentAccess: "karma_threshold", DefaultMinKarma: "100"},
		model.Repo{Name: "r", OwnershipModel: "open", MinKarma: &minKarma},
	)

	atThreshold := seedAgent(t, db, "at", "50")
	below := seedAgent(t, db, "below", "49")

	got, err := svc.Resolve(ctx, atThreshold, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Level != governance.AccessWrite || got.Source != governance.SourceKarma {
		t.Fatalf("Resolve(at threshold) = %+v, want karma write", got)
	}

	got, err = svc.Resolve(ctx, below, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Level != governance.AccessRead || got.Source != governance.SourceKarmaBelowThreshold {
		t.Fatalf("Resolve(below threshold) = %+v, want read below_threshold", got)
	}
}

func TestResolveUnknownAgentTreatedAsZeroKarma(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	_, repoID := seedRepo(t, db,
		model.Org{Name: "org", DefaultAgentAccess: "karma_threshold", DefaultMinKarma: "10"},
		model.Repo{Name: "r", OwnershipModel: "open", IsPrivate: true},
	)

	got, err := svc.Resolve(ctx, 9999, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Level != governance.AccessNone || got.Source != governance.SourceKarmaBelowThreshold {
		t.Fatalf("Resolve(unknown agent, private repo) = %+v, want none below_threshold", got)
	}
}

func TestResolveAllowlistDeniesWithoutGrant(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	_, repoID := seedRepo(t, db,
		model.Org{Name: "org"},
		model.Repo{Name: "r", OwnershipModel: "solo", AgentAccess: "allowlist"},
	)
	agentID := seedAgent(t, db, "bot", "500")

	got, err := svc.Resolve(ctx, agentID, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Level != governance.AccessNone || got.Source != governance.SourceNotAllowlisted {
		t.Fatalf("Resolve() = %+v, want none not_allowlisted", got)
	}
}

func TestResolvePlatformPublicRead(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	_, repoID := seedRepo(t, db,
		model.Org{Name: "platform", IsPlatform: true},
		model.Repo{Name: "r", OwnershipModel: "open"},
	)
	agentID := seedAgent(t, db, "visitor", "0")

	got, err := svc.Resolve(ctx, agentID, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Level != governance.AccessRead || got.Source != governance.SourcePlatformPublic {
		t.Fatalf("Resolve() = %+v, want read platform_public", got)
	}
}

func TestResolveMissingRepoIsNotAnError(t *testing.T) {
	svc, _, _, _ := setupService(t)

	got, err := svc.Resolve(context.Background(), 1, 424242)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Level != governance.AccessNone || got.Source != governance.SourceNotFound {
		t.Fatalf("Resolve() = %+v, want none not_found", got)
	}
}

func TestResolveOrgSettingsServedFromCache(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	orgID, repoID := seedRepo(t, db,
		model.Org{Name: "org", DefaultAgentAccess: "public"},
		model.Repo{Name: "r", OwnershipModel: "open"},
	)
	agentID := seedAgent(t, db, "bot", "0")

	got, err := svc.Resolve(ctx, agentID, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Source != governance.SourcePublic {
		t.Fatalf("Resolve() source = %s, want public", got.Source)
	}

	// Flip the org default behind the cache. The stale entry keeps serving
	// until invalidated.
	if err := db.Model(&model.Org{}).Where("org_id = ?", orgID).Update("default_agent_access", "none").Error; err != nil {
		t.Fatalf("update org: %v", err)
	}

	got, err = svc.Resolve(ctx, agentID, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Source != governance.SourcePublic {
		t.Fatalf("Resolve() after update source = %s, want cached public", got.Source)
	}

	if err := svc.InvalidateOrgSettings(ctx, orgID); err != nil {
		t.Fatalf("InvalidateOrgSettings() error = %v", err)
	}

	got, err = svc.Resolve(ctx, agentID, repoID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Level != governance.AccessNone {
		t.Fatalf("Resolve() after invalidate = %+v, want none", got)
	}
}

func TestCanPerformRejectsUnknownAction(t *testing.T) {
	svc, _, _, _ := setupService(t)

	if _, err := svc.CanPerform(context.Background(), 1, 1, "deploy"); err == nil {
		t.Fatal("CanPerform() with unknown action: want error")
	}
}

func TestCanPushToBranchRulePrecedence(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	_, repoID := seedRepo(t, db,
		model.Org{Name: "org", DefaultAgentAccess: "public"},
		model.Repo{Name: "r", OwnershipModel: "open"},
	)
	maintainerID := seedAgent(t, db, "owner", "0")
	outsiderID := seedAgent(t, db, "outsider", "0")

	if err := db.Create(&model.Maintainer{RepoID: repoID, AgentID: maintainerID, Role: "owner"}).Error; err != nil {
		t.Fatalf("seed maintainer: %v", err)
	}

	rules := []model.BranchRule{
		{RepoID: repoID, BranchPattern: "main", Priority: 10, DirectPush: "none"},
		{RepoID: repoID, BranchPattern: "release-*", Priority: 5, DirectPush: "maintainers"},
		{RepoID: repoID, BranchPattern: "*", Priority: 0, DirectPush: "all"},
	}
	for i := range rules {
		if err := db.Create(&rules[i]).Error; err != nil {
			t.Fatalf("seed rule: %v", err)
		}
	}

	got, err := svc.CanPushToBranch(ctx, maintainerID, repoID, "main")
	if err != nil {
		t.Fatalf("CanPushToBranch() error = %v", err)
	}
	if got.Allowed || got.Reason != governance.PushBranchProtected {
		t.Fatalf("push main = %+v, want protected", got)
	}

	got, err = svc.CanPushToBranch(ctx, outsiderID, repoID, "release-1.2")
	if err != nil {
		t.Fatalf("CanPushToBranch() error = %v", err)
	}
	if got.Allowed || got.Reason != governance.PushMaintainersOnly {
		t.Fatalf("outsider push release-1.2 = %+v, want maintainers_only", got)
	}

	got, err = svc.CanPushToBranch(ctx, maintainerID, repoID, "release-1.2")
	if err != nil {
		t.Fatalf("CanPushToBranch() error = %v", err)
	}
	if !got.Allowed || got.Reason != governance.PushAllowed {
		t.Fatalf("maintainer push release-1.2 = %+v, want allowed", got)
	}

	got, err = svc.CanPushToBranch(ctx, outsiderID, repoID, "scratch/idea")
	if err != nil {
		t.Fatalf("CanPushToBranch() error = %v", err)
	}
	if !got.Allowed {
		t.Fatalf("wildcard push = %+v, want allowed", got)
	}
}

func TestCanPushToBranchRequiresWrite(t *testing.T) {
	svc, db, _, _ := setupService(t)
	ctx := context.Background()

	_, repoID := seedRepo(t, db,
		model.Org{Name: "org", IsPlatform: true},
		model.Repo{Name: "r", OwnershipModel: "open"},
	)
	agentID := seedAgent(t, db, "reader", "0")

	got, err := svc.CanPushToBranch(ctx, agentID, repoID, "main")
	if err != nil {
		t.Fatalf("CanPushToBranch() error = %v", err)
	}
	if got.Allowed || got.Reason != governance.PushInsufficientPermissions {
		t.Fatalf("read-only push = %+v, want insufficient_permissions", got)
	}
}
