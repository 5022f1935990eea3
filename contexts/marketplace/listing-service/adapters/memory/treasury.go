package memory

import (
	"context"
	"fmt"
	"sync"

	domainerrors "gavel/contexts/marketplace/listing-service/domain/errors"
	"gavel/contexts/marketplace/listing-service/ports"
)

// Treasury is an in-memory stand-in for the external collaborators a
// marketplace deployment talks to: the asset registry, the funds ledger, the
// project directory with its terminals, and delegated allocators. Tests and
// local runs wire one Treasury behind all the collaborator ports; the asset
// and ledger ports are exposed through view types because their TransferFrom
// signatures differ.
type Treasury struct {
	mu sync.Mutex

	owners    map[string]string // asset key -> owner
	approvals map[string]string // asset key -> approved operator

	balances   map[string]uint64 // token/account -> balance
	allowances map[string]uint64 // token/owner/spender -> remaining allowance

	terminals        map[uint64]map[string]bool // projectID -> terminal IDs
	primaryTerminals map[string]string          // projectID/token -> terminal ID
	terminalBalances map[string]uint64          // terminalID/token -> balance
	allocations      map[string][]ports.Allocation
}

func NewTreasury() *Treasury {
	return &Treasury{
		owners:           make(map[string]string),
		approvals:        make(map[string]string),
		balances:         make(map[string]uint64),
		allowances:       make(map[string]uint64),
		terminals:        make(map[uint64]map[string]bool),
		primaryTerminals: make(map[string]string),
		terminalBalances: make(map[string]uint64),
		allocations:      make(map[string][]ports.Allocation),
	}
}

func assetKey(assetContract string, tokenID uint64) string {
	return fmt.Sprintf("%s/%d", assetContract, tokenID)
}

func accountKey(token, account string) string {
	return token + "/" + account
}

// MintAsset seeds an asset under an owner.
func (t *Treasury) MintAsset(assetContract string, tokenID uint64, owner string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.owners[assetKey(assetContract, tokenID)] = owner
}

// ApproveOperator lets operator move the asset on the owner's behalf.
func (t *Treasury) ApproveOperator(assetContract string, tokenID uint64, operator string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.approvals[assetKey(assetContract, tokenID)] = operator
}

// Credit seeds a token balance on an account.
func (t *Treasury) Credit(token, account string, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[accountKey(token, account)] += amount
}

// Approve seeds a spender allowance over an owner's tokens.
func (t *Treasury) Approve(token, owner, spender string, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[token+"/"+owner+"/"+spender] = amount
}

// RegisterTerminal attaches a terminal to a project; the first terminal
// registered for a token becomes its primary terminal.
func (t *Treasury) RegisterTerminal(projectID uint64, terminalID, token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.terminals[projectID] == nil {
		t.terminals[projectID] = make(map[string]bool)
	}
	t.terminals[projectID][terminalID] = true
	primaryKey := fmt.Sprintf("%d/%s", projectID, token)
	if _, exists := t.primaryTerminals[primaryKey]; !exists {
		t.primaryTerminals[primaryKey] = terminalID
	}
}

// AssetOwner reports the current owner of an asset, for assertions.
func (t *Treasury) AssetOwner(assetContract string, tokenID uint64) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.owners[assetKey(assetContract, tokenID)]
}

// TerminalBalance reports a terminal's accumulated token balance.
func (t *Treasury) TerminalBalance(terminalID, token string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminalBalances[terminalID+"/"+token]
}

// Allocations reports what an allocator has received.
func (t *Treasury) Allocations(allocatorID string) []ports.Allocation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ports.Allocation(nil), t.allocations[allocatorID]...)
}

// Assets exposes the asset-registry view.
func (t *Treasury) Assets() *AssetBook { return &AssetBook{t: t} }

// Ledger exposes the funds-ledger view.
func (t *Treasury) Ledger() *LedgerBook { return &LedgerBook{t: t} }

type AssetBook struct {
	t *Treasury
}

func (a *AssetBook) OwnerOf(_ context.Context, assetContract string, tokenID uint64) (string, error) {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()

	owner, exists := a.t.owners[assetKey(assetContract, tokenID)]
	if !exists {
		return "", domainerrors.ErrInvalidSale
	}
	return owner, nil
}

func (a *AssetBook) IsApproved(_ context.Context, assetContract, owner, operator string, tokenID uint64) (bool, error) {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()

	key := assetKey(assetContract, tokenID)
	if a.t.owners[key] != owner {
		return false, nil
	}
	return a.t.approvals[key] == operator, nil
}

func (a *AssetBook) TransferFrom(_ context.Context, assetContract, from, to string, tokenID uint64) error {
	a.t.mu.Lock()
	defer a.t.mu.Unlock()

	key := assetKey(assetContract, tokenID)
	if a.t.owners[key] != from {
		return domainerrors.ErrPaymentFailure
	}
	a.t.owners[key] = to
	delete(a.t.approvals, key)
	return nil
}

type LedgerBook struct {
	t *Treasury
}

func (l *LedgerBook) Transfer(_ context.Context, token, from, to string, amount uint64) error {
	l.t.mu.Lock()
	defer l.t.mu.Unlock()
	return l.t.move(token, from, to, amount)
}

func (l *LedgerBook) TransferFrom(_ context.Context, token, owner, spender, to string, amount uint64) error {
	l.t.mu.Lock()
	defer l.t.mu.Unlock()

	allowanceKey := token + "/" + owner + "/" + spender
	if l.t.allowances[allowanceKey] < amount {
		return domainerrors.ErrPaymentFailure
	}
	if err := l.t.move(token, owner, to, amount); err != nil {
		return err
	}
	l.t.allowances[allowanceKey] -= amount
	return nil
}

func (l *LedgerBook) Balance(_ context.Context, token, account string) (uint64, error) {
	l.t.mu.Lock()
	defer l.t.mu.Unlock()
	return l.t.balances[accountKey(token, account)], nil
}

// move requires the caller to hold the treasury lock.
func (t *Treasury) move(token, from, to string, amount uint64) error {
	fromKey := accountKey(token, from)
	if t.balances[fromKey] < amount {
		return domainerrors.ErrPaymentFailure
	}
	t.balances[fromKey] -= amount
	t.balances[accountKey(token, to)] += amount
	return nil
}

func (t *Treasury) IsTerminalOf(_ context.Context, projectID uint64, terminalID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.terminals[projectID][terminalID], nil
}

func (t *Treasury) PrimaryTerminalOf(_ context.Context, projectID uint64, token string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.primaryTerminals[fmt.Sprintf("%d/%s", projectID, token)], nil
}

func (t *Treasury) AddToBalance(_ context.Context, terminalID string, projectID uint64, token, from string, amount uint64, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.terminals[projectID][terminalID] {
		return domainerrors.ErrPaymentFailure
	}
	fromKey := accountKey(token, from)
	if t.balances[fromKey] < amount {
		return domainerrors.ErrPaymentFailure
	}
	t.balances[fromKey] -= amount
	t.terminalBalances[terminalID+"/"+token] += amount
	return nil
}

func (t *Treasury) Pay(_ context.Context, terminalID string, projectID uint64, token, from, _ string, amount uint64, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.terminals[projectID][terminalID] {
		return domainerrors.ErrPaymentFailure
	}
	fromKey := accountKey(token, from)
	if t.balances[fromKey] < amount {
		return domainerrors.ErrPaymentFailure
	}
	t.balances[fromKey] -= amount
	t.terminalBalances[terminalID+"/"+token] += amount
	return nil
}

func (t *Treasury) Allocate(_ context.Context, allocatorID, from string, allocation ports.Allocation) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.move(allocation.Token, from, allocatorID, allocation.Amount); err != nil {
		return err
	}
	t.allocations[allocatorID] = append(t.allocations[allocatorID], allocation)
	return nil
}

var _ ports.AssetRegistry = (*AssetBook)(nil)
var _ ports.Ledger = (*LedgerBook)(nil)
var _ ports.Directory = (*Treasury)(nil)
var _ ports.TerminalGateway = (*Treasury)(nil)
var _ ports.Allocator = (*Treasury)(nil)
