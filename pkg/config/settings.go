package config

import (
	"fmt"
	"time"

	"communityprojects/internal/engine"
	"communityprojects/pkg/chain"

	"github.com/caarlos0/env/v11"
)

// Settings holds the node and engine configuration read from the environment.
// Database and RabbitMQ connections keep reading their own DB_* and RABBITMQ_*
// variables.
type Settings struct {
	Port      string        `env:"PORT" envDefault:"8080"`
	BlockTime time.Duration `env:"BLOCK_TIME" envDefault:"6s"`

	StableAssetID          uint32 `env:"STABLE_ASSET_ID" envDefault:"1"`
	CustodyAccount         string `env:"CUSTODY_ACCOUNT" envDefault:"community-projects"`
	CustodyBalance         uint64 `env:"CUSTODY_BALANCE" envDefault:"1000000000"`
	ExistentialDeposit     uint64 `env:"EXISTENTIAL_DEPOSIT" envDefault:"1"`
	MinimumRemainingAmount uint64 `env:"MINIMUM_REMAINING_AMOUNT" envDefault:"100"`
	MaxMilestones          uint32 `env:"MAX_MILESTONES" envDefault:"12"`
	MilestonePeriod        uint64 `env:"MILESTONE_PERIOD" envDefault:"10"`
	VotingTime             uint64 `env:"VOTING_TIME" envDefault:"10"`
	MaxOngoingProjects     int    `env:"MAX_ONGOING_PROJECTS" envDefault:"100"`
	MaxNftTypes            uint32 `env:"MAX_NFT_TYPES" envDefault:"5"`
	StrikeLimit            uint8  `env:"STRIKE_LIMIT" envDefault:"3"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	EventsQueue string `env:"EVENTS_QUEUE" envDefault:"community_project_events"`

	// DevAccounts are whitelisted and funded at startup of the in-memory chain
	DevAccounts []string `env:"DEV_ACCOUNTS" envSeparator:","`
	DevBalance  uint64   `env:"DEV_BALANCE" envDefault:"1000000"`
}

// LoadSettings parses Settings from the environment
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if s.BlockTime <= 0 {
		return Settings{}, fmt.Errorf("BLOCK_TIME must be positive, got %s", s.BlockTime)
	}
	if s.MaxMilestones == 0 {
		return Settings{}, fmt.Errorf("MAX_MILESTONES must be positive")
	}
	if s.MilestonePeriod == 0 {
		return Settings{}, fmt.Errorf("MILESTONE_PERIOD must be positive")
	}
	if s.VotingTime == 0 {
		return Settings{}, fmt.Errorf("VOTING_TIME must be positive")
	}
	if s.MaxOngoingProjects <= 0 {
		return Settings{}, fmt.Errorf("MAX_ONGOING_PROJECTS must be positive, got %d", s.MaxOngoingProjects)
	}
	if s.StrikeLimit == 0 {
		return Settings{}, fmt.Errorf("STRIKE_LIMIT must be positive")
	}
	return s, nil
}

// EngineConfig maps the settings onto the engine constants
func (s Settings) EngineConfig() engine.Config {
	return engine.Config{
		StableAsset:            chain.AssetID(s.StableAssetID),
		CustodyAccount:         chain.AccountID(s.CustodyAccount),
		MinimumRemainingAmount: engine.NativeBalance(s.MinimumRemainingAmount),
		MaxMilestones:          s.MaxMilestones,
		MilestonePeriod:        engine.BlockNumber(s.MilestonePeriod),
		VotingTime:             engine.BlockNumber(s.VotingTime),
		MaxOngoingProjects:     s.MaxOngoingProjects,
		MaxNftTypes:            s.MaxNftTypes,
		StrikeLimit:            s.StrikeLimit,
	}
}
