package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"govcore/internal/bootstrap/logging"
	"govcore/internal/errs"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Governance GovernanceConfig `mapstructure:"governance"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type GovernanceConfig struct {
	Proposal   ProposalConfig   `mapstructure:"proposal"`
	Election   ElectionConfig   `mapstructure:"election"`
	Permission PermissionConfig `mapstructure:"permission"`
}

type ProposalConfig struct {
	ExpiresInDays int `mapstructure:"expires_in_days"`
}

type ElectionConfig struct {
	NominationsDays    int `mapstructure:"nominations_days"`
	VotingDays         int `mapstructure:"voting_days"`
	TermLimitMonths    int `mapstructure:"term_limit_months"`
	MinExtraCandidates int `mapstructure:"min_extra_candidates"`
}

type PermissionConfig struct {
	OrgSettingsTTL time.Duration `mapstructure:"org_settings_ttl"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(logCtx, v)

	v.SetEnvPrefix("GOVCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Governance.Proposal.ExpiresInDays < 1 {
		return Config{}, errors.New("governance.proposal.expires_in_days must be at least 1")
	}
	if cfg.Governance.Election.NominationsDays < 1 || cfg.Governance.Election.VotingDays < 1 {
		return Config{}, errors.New("governance.election phase durations must be at least 1 day")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
	)

	return cfg, nil
}

func setDefaults(ctx context.Context, v *viper.Viper) {
	if ctx == nil {
		return
	}

	v.SetDefault("app.name", "govcore")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".govcore/state/governance.sqlite")
	v.SetDefault("governance.proposal.expires_in_days", 7)
	v.SetDefault("governance.election.nominations_days", 3)
	v.SetDefault("governance.election.voting_days", 4)
	v.SetDefault("governance.election.term_limit_months", 6)
	v.SetDefault("governance.election.min_extra_candidates", 1)
	v.SetDefault("governance.permission.org_settings_ttl", 5*time.Minute)
}
