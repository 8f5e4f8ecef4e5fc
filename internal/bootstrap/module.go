package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"govcore/internal/bootstrap/config"
	"govcore/internal/bootstrap/database"
	"govcore/internal/bootstrap/logging"
	cacheinfra "govcore/internal/infrastructure/cache"
	clockinfra "govcore/internal/infrastructure/clock"
	sqliterepo "govcore/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "govcore/internal/infrastructure/persistence/sqlite/uow"
	"govcore/internal/ports"
	"govcore/internal/usecase/consensus"
	"govcore/internal/usecase/council"
	"govcore/internal/usecase/election"
	"govcore/internal/usecase/permission"
	"govcore/internal/usecase/stage"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewAccessRepository,
			fx.As(new(ports.AccessStore)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewReviewRepository,
			fx.As(new(ports.ReviewStore)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewCouncilRepository,
			fx.As(new(ports.CouncilStore)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewElectionRepository,
			fx.As(new(ports.ElectionStore)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewActivityRepository,
			fx.As(new(ports.ActivityStore)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewStageRepository,
			fx.As(new(ports.StageStore)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(
		fx.Annotate(
			clockinfra.NewSystem,
			fx.As(new(ports.Clock)),
		),
	),
	fx.Provide(providePermissionService),
	fx.Provide(consensus.NewService),
	fx.Provide(provideCouncilService),
	fx.Provide(provideElectionService),
	fx.Provide(stage.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func providePermissionService(store ports.AccessStore, cache ports.Cache, clock ports.Clock, cfg config.Config) *permission.Service {
	return permission.NewService(store, cache, clock, permission.Policy{
		OrgSettingsTTL: cfg.Governance.Permission.OrgSettingsTTL,
	})
}

func provideCouncilService(
	councils ports.CouncilStore,
	access ports.AccessStore,
	activity ports.ActivityStore,
	uow ports.UnitOfWork,
	clock ports.Clock,
	cfg config.Config,
) *council.Service {
	return council.NewService(councils, access, activity, uow, clock, council.Policy{
		ProposalExpiresInDays: cfg.Governance.Proposal.ExpiresInDays,
	})
}

func provideElectionService(
	elections ports.ElectionStore,
	councils ports.CouncilStore,
	councilSvc *council.Service,
	uow ports.UnitOfWork,
	clock ports.Clock,
	cfg config.Config,
) *election.Service {
	return election.NewService(elections, councils, councilSvc, uow, clock, election.Policy{
		NominationsDays:    cfg.Governance.Election.NominationsDays,
		VotingDays:         cfg.Governance.Election.VotingDays,
		TermLimitMonths:    cfg.Governance.Election.TermLimitMonths,
		MinExtraCandidates: cfg.Governance.Election.MinExtraCandidates,
	})
}
