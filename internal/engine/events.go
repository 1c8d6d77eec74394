package engine

import (
	"encoding/json"
	"fmt"

	"communityprojects/pkg/chain"
)

// Event is something observers (indexers, UIs) are told about
type Event interface {
	EventName() string
	Project() ProjectID
}

// Record is an event stamped with the height it was emitted at
type Record struct {
	Height BlockNumber
	Event  Event
}

type ProjectListed struct {
	ProjectID  ProjectID       `json:"project_id"`
	Seller     chain.AccountID `json:"seller"`
	Price      StableBalance   `json:"price"`
	Duration   uint32          `json:"duration"`
	Milestones uint32          `json:"milestones"`
	NftTypes   uint32          `json:"nft_types"`
}

type NftBought struct {
	ProjectID      ProjectID       `json:"project_id"`
	Buyer          chain.AccountID `json:"buyer"`
	NftType        uint32          `json:"nft_type"`
	ItemID         chain.ItemID    `json:"item_id"`
	Price          StableBalance   `json:"price"`
	ProjectBalance StableBalance   `json:"project_balance"`
}

type ProjectLaunched struct {
	ProjectID ProjectID   `json:"project_id"`
	Launching BlockNumber `json:"launching"`
	Burned    int         `json:"burned"`
}

type VotingPeriodStarted struct {
	ProjectID ProjectID   `json:"project_id"`
	EndsAt    BlockNumber `json:"ends_at"`
}

type VotedOnMilestone struct {
	ProjectID ProjectID       `json:"project_id"`
	Voter     chain.AccountID `json:"voter"`
	Vote      Vote            `json:"vote"`
	Power     StableBalance   `json:"power"`
}

// MilestoneRejected is emitted when a ballot fails and a strike is recorded
type MilestoneRejected struct {
	ProjectID ProjectID     `json:"project_id"`
	Yes       StableBalance `json:"yes"`
	No        StableBalance `json:"no"`
	Strikes   uint8         `json:"strikes"`
}

type FundsDestributed struct {
	ProjectID           ProjectID       `json:"project_id"`
	Owner               chain.AccountID `json:"owner"`
	Stable              StableBalance   `json:"stable"`
	Native              NativeBalance   `json:"native"`
	RemainingMilestones uint32          `json:"remaining_milestones"`
}

type MilestonePeriodStarted struct {
	ProjectID ProjectID   `json:"project_id"`
	EndsAt    BlockNumber `json:"ends_at"`
}

type ProjectDeleted struct {
	ProjectID           ProjectID     `json:"project_id"`
	Success             bool          `json:"success"`
	RefundBalance       StableBalance `json:"refund_balance"`
	BondingBalance      NativeBalance `json:"bonding_balance"`
	RemainingPercentage BasisPoints   `json:"remaining_percentage"`
}

type TokenBonded struct {
	ProjectID      ProjectID       `json:"project_id"`
	Bonder         chain.AccountID `json:"bonder"`
	Amount         NativeBalance   `json:"amount"`
	BondingBalance NativeBalance   `json:"bonding_balance"`
	ProjectBalance StableBalance   `json:"project_balance"`
}

type TokenRefunded struct {
	ProjectID ProjectID       `json:"project_id"`
	Holder    chain.AccountID `json:"holder"`
	Amount    StableBalance   `json:"amount"`
}

type TokenUnbonded struct {
	ProjectID ProjectID       `json:"project_id"`
	Bonder    chain.AccountID `json:"bonder"`
	Amount    NativeBalance   `json:"amount"`
}

func (ProjectListed) EventName() string          { return "ProjectListed" }
func (NftBought) EventName() string              { return "NftBought" }
func (ProjectLaunched) EventName() string        { return "ProjectLaunched" }
func (VotingPeriodStarted) EventName() string    { return "VotingPeriodStarted" }
func (VotedOnMilestone) EventName() string       { return "VotedOnMilestone" }
func (MilestoneRejected) EventName() string      { return "MilestoneRejected" }
func (FundsDestributed) EventName() string       { return "FundsDestributed" }
func (MilestonePeriodStarted) EventName() string { return "MilestonePeriodStarted" }
func (ProjectDeleted) EventName() string         { return "ProjectDeleted" }
func (TokenBonded) EventName() string            { return "TokenBonded" }
func (TokenRefunded) EventName() string          { return "TokenRefunded" }
func (TokenUnbonded) EventName() string          { return "TokenUnbonded" }

func (e ProjectListed) Project() ProjectID          { return e.ProjectID }
func (e NftBought) Project() ProjectID              { return e.ProjectID }
func (e ProjectLaunched) Project() ProjectID        { return e.ProjectID }
func (e VotingPeriodStarted) Project() ProjectID    { return e.ProjectID }
func (e VotedOnMilestone) Project() ProjectID       { return e.ProjectID }
func (e MilestoneRejected) Project() ProjectID      { return e.ProjectID }
func (e FundsDestributed) Project() ProjectID       { return e.ProjectID }
func (e MilestonePeriodStarted) Project() ProjectID { return e.ProjectID }
func (e ProjectDeleted) Project() ProjectID         { return e.ProjectID }
func (e TokenBonded) Project() ProjectID            { return e.ProjectID }
func (e TokenRefunded) Project() ProjectID          { return e.ProjectID }
func (e TokenUnbonded) Project() ProjectID          { return e.ProjectID }

// DecodeEvent rebuilds an event from its name and JSON payload
func DecodeEvent(name string, payload []byte) (Event, error) {
	switch name {
	case "ProjectListed":
		return decode[ProjectListed](name, payload)
	case "NftBought":
		return decode[NftBought](name, payload)
	case "ProjectLaunched":
		return decode[ProjectLaunched](name, payload)
	case "VotingPeriodStarted":
		return decode[VotingPeriodStarted](name, payload)
	case "VotedOnMilestone":
		return decode[VotedOnMilestone](name, payload)
	case "MilestoneRejected":
		return decode[MilestoneRejected](name, payload)
	case "FundsDestributed":
		return decode[FundsDestributed](name, payload)
	case "MilestonePeriodStarted":
		return decode[MilestonePeriodStarted](name, payload)
	case "ProjectDeleted":
		return decode[ProjectDeleted](name, payload)
	case "TokenBonded":
		return decode[TokenBonded](name, payload)
	case "TokenRefunded":
		return decode[TokenRefunded](name, payload)
	case "TokenUnbonded":
		return decode[TokenUnbonded](name, payload)
	}
	return nil, fmt.Errorf("unknown event %q", name)
}

func decode[T Event](name string, payload []byte) (Event, error) {
	var ev T
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return ev, nil
}
