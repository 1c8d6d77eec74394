package engine

import (
	"communityprojects/pkg/chain"
	"communityprojects/pkg/store"

	"github.com/sirupsen/logrus"
)

// BondLockID is the lock placed on bonders' capital
const BondLockID chain.LockID = "commprj"

// Config holds the engine constants
type Config struct {
	// StableAsset is the asset certificates are priced in
	StableAsset chain.AssetID
	// CustodyAccount holds sale proceeds and underwrites bonded payouts
	CustodyAccount chain.AccountID
	// MinimumRemainingAmount is the native balance bonding never touches
	MinimumRemainingAmount NativeBalance
	MaxMilestones          uint32
	MilestonePeriod        BlockNumber
	VotingTime             BlockNumber
	MaxOngoingProjects     int
	MaxNftTypes            uint32
	StrikeLimit            uint8
}

// DefaultConfig returns the constants used on test networks
func DefaultConfig() Config {
	return Config{
		StableAsset:            1,
		CustodyAccount:         "community-projects",
		MinimumRemainingAmount: 100,
		MaxMilestones:          12,
		MilestonePeriod:        10,
		VotingTime:             10,
		MaxOngoingProjects:     100,
		MaxNftTypes:            5,
		StrikeLimit:            3,
	}
}

// Deps are the collaborators the engine calls out to
type Deps struct {
	Journal  *store.Journal
	Identity chain.Identity
	Nfts     chain.NftRegistry
	Assets   chain.AssetLedger
	Capital  chain.Capital
	Logger   logrus.FieldLogger
	// OnDeadLetter is called for every tick step that failed
	OnDeadLetter func(DeadLetter)
}

// Engine runs the community projects state machine. It is not safe for
// concurrent use: every call and every tick must be serialized by the caller.
type Engine struct {
	cfg          Config
	journal      *store.Journal
	identity     chain.Identity
	nfts         chain.NftRegistry
	assets       chain.AssetLedger
	capital      chain.Capital
	log          logrus.FieldLogger
	onDeadLetter func(DeadLetter)

	height *store.Value[BlockNumber]

	projects      *store.Map[ProjectID, Project]
	endedProjects *store.Map[ProjectID, EndedProject]
	listings      *store.Map[listingKey, Listing]
	nftPrices     *store.Map[itemKey, StableBalance]

	holders     *store.Map[accountKey, bool]
	votingPower *store.Map[accountKey, StableBalance]
	voted       *store.Map[accountKey, bool]
	ballots     *store.Map[ProjectID, VoteStats]

	bonds          *store.Map[accountKey, NativeBalance]
	accountLocked  *store.Map[chain.AccountID, NativeBalance]
	projectBonding *store.Map[ProjectID, NativeBalance]
	totalBonded    *store.Value[NativeBalance]

	milestoneQueue *store.Map[BlockNumber, []ProjectID]
	votingQueue    *store.Map[BlockNumber, []ProjectID]

	pending     []Record
	deadLetters []DeadLetter
}

// New wires an engine to its collaborators. Deps.Journal must be the journal
// the collaborators write through if their writes are to be rolled back.
func New(cfg Config, deps Deps) *Engine {
	j := deps.Journal
	if j == nil {
		j = store.NewJournal()
	}
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		cfg:          cfg,
		journal:      j,
		identity:     deps.Identity,
		nfts:         deps.Nfts,
		assets:       deps.Assets,
		capital:      deps.Capital,
		log:          log.WithField("module", "community_projects"),
		onDeadLetter: deps.OnDeadLetter,

		height: store.NewValue[BlockNumber](j, 0),

		projects:      store.NewMap[ProjectID, Project](j),
		endedProjects: store.NewMap[ProjectID, EndedProject](j),
		listings:      store.NewMap[listingKey, Listing](j),
		nftPrices:     store.NewMap[itemKey, StableBalance](j),

		holders:     store.NewMap[accountKey, bool](j),
		votingPower: store.NewMap[accountKey, StableBalance](j),
		voted:       store.NewMap[accountKey, bool](j),
		ballots:     store.NewMap[ProjectID, VoteStats](j),

		bonds:          store.NewMap[accountKey, NativeBalance](j),
		accountLocked:  store.NewMap[chain.AccountID, NativeBalance](j),
		projectBonding: store.NewMap[ProjectID, NativeBalance](j),
		totalBonded:    store.NewValue[NativeBalance](j, 0),

		milestoneQueue: store.NewMap[BlockNumber, []ProjectID](j),
		votingQueue:    store.NewMap[BlockNumber, []ProjectID](j),
	}
}

// Config returns the constants the engine runs with
func (e *Engine) Config() Config {
	return e.cfg
}

// atomic runs fn so that either all of its writes land or none do. Events
// emitted by a failed call are dropped with it.
func (e *Engine) atomic(fn func() error) error {
	mark := len(e.pending)
	err := e.journal.Atomic(fn)
	if err != nil {
		e.pending = e.pending[:mark]
	}
	return err
}

func (e *Engine) emit(ev Event) {
	e.pending = append(e.pending, Record{Height: e.height.Get(), Event: ev})
}

// DrainEvents returns the events committed since the last drain
func (e *Engine) DrainEvents() []Record {
	out := e.pending
	e.pending = nil
	return out
}

func (e *Engine) ensureWhitelisted(account chain.AccountID) error {
	if e.identity == nil || !e.identity.IsWhitelisted(account) {
		return ErrUserNotWhitelisted
	}
	return nil
}

// Height is the block the engine last ticked at
func (e *Engine) Height() BlockNumber {
	return e.height.Get()
}

func (e *Engine) Project(id ProjectID) (Project, bool) {
	return e.projects.Get(id)
}

func (e *Engine) EndedProject(id ProjectID) (EndedProject, bool) {
	return e.endedProjects.Get(id)
}

// Listing returns the unsold certificates of a tier (1-based)
func (e *Engine) Listing(id ProjectID, nftType uint32) (Listing, bool) {
	return e.listings.Get(listingKey{id, nftType})
}

// NftPrice returns the price a certificate was minted with
func (e *Engine) NftPrice(id ProjectID, item chain.ItemID) (StableBalance, bool) {
	return e.nftPrices.Get(itemKey{id, item})
}

// Ballot returns the open ballot of a project
func (e *Engine) Ballot(id ProjectID) (VoteStats, bool) {
	return e.ballots.Get(id)
}

func (e *Engine) IsHolder(id ProjectID, account chain.AccountID) bool {
	return e.holders.GetOrZero(accountKey{id, account})
}

// VotingPower is the sum of prices account paid for certificates of a project
func (e *Engine) VotingPower(id ProjectID, account chain.AccountID) StableBalance {
	return e.votingPower.GetOrZero(accountKey{id, account})
}

func (e *Engine) HasVoted(id ProjectID, account chain.AccountID) bool {
	return e.voted.GetOrZero(accountKey{id, account})
}

// Bond returns what account has locked against a project
func (e *Engine) Bond(id ProjectID, account chain.AccountID) NativeBalance {
	return e.bonds.GetOrZero(accountKey{id, account})
}

// AccountLocked is account's bonded total across all projects
func (e *Engine) AccountLocked(account chain.AccountID) NativeBalance {
	return e.accountLocked.GetOrZero(account)
}

// ProjectBonding is the capital still locked by bonders of a project
func (e *Engine) ProjectBonding(id ProjectID) NativeBalance {
	return e.projectBonding.GetOrZero(id)
}

func (e *Engine) TotalBonded() NativeBalance {
	return e.totalBonded.Get()
}

// DeadLetters returns every tick step that failed so far
func (e *Engine) DeadLetters() []DeadLetter {
	return append([]DeadLetter(nil), e.deadLetters...)
}
