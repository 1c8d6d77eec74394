package chain

import "errors"

// AccountID identifies an account on the ledgers
type AccountID string

// CollectionID identifies an NFT collection
type CollectionID uint32

// ItemID identifies an NFT inside its collection
type ItemID uint32

// AssetID identifies a fungible asset on the asset ledger
type AssetID uint32

// LockID names a lock placed on native capital
type LockID string

// WithdrawReasons is a bit set describing which withdrawals a lock blocks
type WithdrawReasons uint8

const (
	ReasonTransfer WithdrawReasons = 1 << iota
	ReasonReserve
	ReasonFee

	ReasonsAll = ReasonTransfer | ReasonReserve | ReasonFee
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLiquidityRestricted = errors.New("balance is locked")
	ErrKeepAlive           = errors.New("transfer would kill account")
	ErrUnknownCollection   = errors.New("unknown collection")
	ErrUnknownItem         = errors.New("unknown item")
	ErrItemExists          = errors.New("item already exists")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Identity answers whether an account passed identity checks
type Identity interface {
	IsWhitelisted(account AccountID) bool
}

// NftRegistry owns collections and items. Transfer semantics beyond ownership
// are its own concern.
type NftRegistry interface {
	CreateCollection(owner AccountID) (CollectionID, error)
	Mint(collection CollectionID, item ItemID, owner AccountID) error
	Burn(collection CollectionID, item ItemID) error
	Transfer(collection CollectionID, item ItemID, to AccountID) error
	SetMetadata(collection CollectionID, item ItemID, data []byte) error
}

// AssetLedger moves fungible assets between accounts
type AssetLedger interface {
	Transfer(asset AssetID, from, to AccountID, amount uint64) error
	Balance(asset AssetID, account AccountID) uint64
}

// Capital is the native currency with named locks
type Capital interface {
	FreeBalance(account AccountID) uint64
	SetLock(id LockID, account AccountID, amount uint64, reasons WithdrawReasons)
	RemoveLock(id LockID, account AccountID)
	Transfer(from, to AccountID, amount uint64, keepAlive bool) error
}
