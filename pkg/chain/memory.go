package chain

import (
	"fmt"
	"math/bits"

	"communityprojects/pkg/store"
)

// Whitelist is an in-memory Identity
type Whitelist struct {
	accounts *store.Map[AccountID, bool]
}

func NewWhitelist(j *store.Journal) *Whitelist {
	return &Whitelist{accounts: store.NewMap[AccountID, bool](j)}
}

func (w *Whitelist) Add(account AccountID) {
	w.accounts.Insert(account, true)
}

func (w *Whitelist) Remove(account AccountID) {
	w.accounts.Remove(account)
}

func (w *Whitelist) IsWhitelisted(account AccountID) bool {
	return w.accounts.GetOrZero(account)
}

type itemKey struct {
	Collection CollectionID
	Item       ItemID
}

// Nfts is an in-memory NftRegistry
type Nfts struct {
	next        *store.Value[CollectionID]
	collections *store.Map[CollectionID, AccountID]
	owners      *store.Map[itemKey, AccountID]
	metadata    *store.Map[itemKey, []byte]
}

func NewNfts(j *store.Journal) *Nfts {
	return &Nfts{
		next:        store.NewValue[CollectionID](j, 0),
		collections: store.NewMap[CollectionID, AccountID](j),
		owners:      store.NewMap[itemKey, AccountID](j),
		metadata:    store.NewMap[itemKey, []byte](j),
	}
}

func (n *Nfts) CreateCollection(owner AccountID) (CollectionID, error) {
	id := n.next.Get()
	n.collections.Insert(id, owner)
	n.next.Set(id + 1)
	return id, nil
}

func (n *Nfts) Mint(collection CollectionID, item ItemID, owner AccountID) error {
	if !n.collections.Contains(collection) {
		return fmt.Errorf("%w: %d", ErrUnknownCollection, collection)
	}
	key := itemKey{collection, item}
	if n.owners.Contains(key) {
		return fmt.Errorf("%w: %d/%d", ErrItemExists, collection, item)
	}
	n.owners.Insert(key, owner)
	return nil
}

func (n *Nfts) Burn(collection CollectionID, item ItemID) error {
	key := itemKey{collection, item}
	if _, ok := n.owners.Remove(key); !ok {
		return fmt.Errorf("%w: %d/%d", ErrUnknownItem, collection, item)
	}
	n.metadata.Remove(key)
	return nil
}

func (n *Nfts) Transfer(collection CollectionID, item ItemID, to AccountID) error {
	key := itemKey{collection, item}
	if !n.owners.Contains(key) {
		return fmt.Errorf("%w: %d/%d", ErrUnknownItem, collection, item)
	}
	n.owners.Insert(key, to)
	return nil
}

func (n *Nfts) SetMetadata(collection CollectionID, item ItemID, data []byte) error {
	key := itemKey{collection, item}
	if !n.owners.Contains(key) {
		return fmt.Errorf("%w: %d/%d", ErrUnknownItem, collection, item)
	}
	n.metadata.Insert(key, append([]byte(nil), data...))
	return nil
}

// Owner returns the current owner of an item
func (n *Nfts) Owner(collection CollectionID, item ItemID) (AccountID, bool) {
	return n.owners.Get(itemKey{collection, item})
}

// Metadata returns the bytes attached to an item
func (n *Nfts) Metadata(collection CollectionID, item ItemID) ([]byte, bool) {
	return n.metadata.Get(itemKey{collection, item})
}

type assetKey struct {
	Asset   AssetID
	Account AccountID
}

// Assets is an in-memory AssetLedger
type Assets struct {
	balances *store.Map[assetKey, uint64]
}

func NewAssets(j *store.Journal) *Assets {
	return &Assets{balances: store.NewMap[assetKey, uint64](j)}
}

// Mint credits amount of asset to account
func (a *Assets) Mint(asset AssetID, account AccountID, amount uint64) error {
	key := assetKey{asset, account}
	sum, carry := bits.Add64(a.balances.GetOrZero(key), amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	a.balances.Insert(key, sum)
	return nil
}

func (a *Assets) Balance(asset AssetID, account AccountID) uint64 {
	return a.balances.GetOrZero(assetKey{asset, account})
}

func (a *Assets) Transfer(asset AssetID, from, to AccountID, amount uint64) error {
	if amount == 0 || from == to {
		return nil
	}
	src := assetKey{asset, from}
	have := a.balances.GetOrZero(src)
	if have < amount {
		return fmt.Errorf("%w: asset %d account %s has %d, needs %d", ErrInsufficientBalance, asset, from, have, amount)
	}
	dst := assetKey{asset, to}
	sum, carry := bits.Add64(a.balances.GetOrZero(dst), amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	a.balances.Insert(src, have-amount)
	a.balances.Insert(dst, sum)
	return nil
}

type lockKey struct {
	ID      LockID
	Account AccountID
}

// Currency is an in-memory Capital. Locks overlap: the frozen amount of an
// account is the largest of its locks.
type Currency struct {
	existentialDeposit uint64
	free               *store.Map[AccountID, uint64]
	locks              *store.Map[lockKey, uint64]
}

func NewCurrency(j *store.Journal, existentialDeposit uint64) *Currency {
	return &Currency{
		existentialDeposit: existentialDeposit,
		free:               store.NewMap[AccountID, uint64](j),
		locks:              store.NewMap[lockKey, uint64](j),
	}
}

// Deposit credits native capital to account
func (c *Currency) Deposit(account AccountID, amount uint64) error {
	sum, carry := bits.Add64(c.free.GetOrZero(account), amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	c.free.Insert(account, sum)
	return nil
}

func (c *Currency) FreeBalance(account AccountID) uint64 {
	return c.free.GetOrZero(account)
}

// Frozen returns the amount held back by locks
func (c *Currency) Frozen(account AccountID) uint64 {
	var frozen uint64
	c.locks.Range(func(k lockKey, amount uint64) bool {
		if k.Account == account && amount > frozen {
			frozen = amount
		}
		return true
	})
	return frozen
}

// Lock returns the amount of a single named lock
func (c *Currency) Lock(id LockID, account AccountID) uint64 {
	return c.locks.GetOrZero(lockKey{id, account})
}

func (c *Currency) SetLock(id LockID, account AccountID, amount uint64, reasons WithdrawReasons) {
	if amount == 0 || reasons == 0 {
		c.RemoveLock(id, account)
		return
	}
	c.locks.Insert(lockKey{id, account}, amount)
}

func (c *Currency) RemoveLock(id LockID, account AccountID) {
	c.locks.Remove(lockKey{id, account})
}

func (c *Currency) Transfer(from, to AccountID, amount uint64, keepAlive bool) error {
	if amount == 0 || from == to {
		return nil
	}
	have := c.free.GetOrZero(from)
	if have < amount {
		return fmt.Errorf("%w: account %s has %d, needs %d", ErrInsufficientBalance, from, have, amount)
	}
	left := have - amount
	if left < c.Frozen(from) {
		return fmt.Errorf("%w: account %s", ErrLiquidityRestricted, from)
	}
	if keepAlive && left < c.existentialDeposit {
		return fmt.Errorf("%w: account %s", ErrKeepAlive, from)
	}
	sum, carry := bits.Add64(c.free.GetOrZero(to), amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	c.free.Insert(from, left)
	c.free.Insert(to, sum)
	return nil
}

var (
	_ Identity    = (*Whitelist)(nil)
	_ NftRegistry = (*Nfts)(nil)
	_ AssetLedger = (*Assets)(nil)
	_ Capital     = (*Currency)(nil)
)

// Memory bundles the in-memory collaborators on one journal, so an atomic
// call that fails also reverts what it did to the ledgers.
type Memory struct {
	Journal   *store.Journal
	Whitelist *Whitelist
	Nfts      *Nfts
	Assets    *Assets
	Currency  *Currency
}

// NewMemory creates empty ledgers sharing a fresh journal
func NewMemory(existentialDeposit uint64) *Memory {
	j := store.NewJournal()
	return &Memory{
		Journal:   j,
		Whitelist: NewWhitelist(j),
		Nfts:      NewNfts(j),
		Assets:    NewAssets(j),
		Currency:  NewCurrency(j, existentialDeposit),
	}
}
