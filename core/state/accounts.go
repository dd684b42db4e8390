package state

import (
	"fmt"
	"math/big"

	"stardust/core/types"
)

func accountKey(id types.AccountID) []byte {
	return append([]byte("account/"), id.Bytes()...)
}

// GetAccount loads the account record for id, returning a zero-valued
// Account (nonce 0, balance 0) if none exists yet.
func (m *Manager) GetAccount(id types.AccountID) (*types.Account, error) {
	var acct types.Account
	ok, err := m.KVGet(accountKey(id), &acct)
	if err != nil {
		return nil, err
	}
	if !ok {
		acct = types.Account{}
	}
	acct.EnsureDefaults()
	return &acct, nil
}

// PutAccount persists acct under id.
func (m *Manager) PutAccount(id types.AccountID, acct *types.Account) error {
	acct.EnsureDefaults()
	return m.KVPut(accountKey(id), acct)
}

// ReapIfDust deletes the account record if its balance has fallen below
// types.ExistentialDeposit and its nonce is still 0, matching the runtime's
// existential-deposit rule (spec §3). Accounts with a non-zero nonce are
// kept whatever their balance.
func (m *Manager) ReapIfDust(id types.AccountID) error {
	acct, err := m.GetAccount(id)
	if err != nil {
		return err
	}
	if acct.Balance.Cmp(types.ExistentialDeposit) < 0 && acct.Nonce == 0 {
		return m.KVDelete(accountKey(id))
	}
	return nil
}

// Transfer moves amount of free balance from `from` to `to`. It refuses to
// leave the source account with a sub-existential dust balance unless the
// transfer empties it entirely.
func (m *Manager) Transfer(from, to types.AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: transfer amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	src, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	if src.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("state: insufficient balance")
	}
	remaining := new(big.Int).Sub(src.Balance, amount)
	if remaining.Sign() > 0 && remaining.Cmp(types.ExistentialDeposit) < 0 {
		return fmt.Errorf("state: transfer would leave sender below existential deposit")
	}
	dst, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	src.Balance = remaining
	dst.Balance = new(big.Int).Add(dst.Balance, amount)
	if err := m.PutAccount(from, src); err != nil {
		return err
	}
	if err := m.PutAccount(to, dst); err != nil {
		return err
	}
	if remaining.Sign() == 0 {
		if err := m.ReapIfDust(from); err != nil {
			return err
		}
	}
	return nil
}

// Credit increases to's free balance by amount, creating the account if
// needed. Used for mint-like operations (bridge completion, subsidy payout).
func (m *Manager) Credit(to types.AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: credit amount must be non-negative")
	}
	acct, err := m.GetAccount(to)
	if err != nil {
		return err
	}
	acct.Balance = new(big.Int).Add(acct.Balance, amount)
	return m.PutAccount(to, acct)
}

// Debit decreases from's free balance by amount, failing if insufficient.
// Used for burn-like operations (bridge outbound).
func (m *Manager) Debit(from types.AccountID, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: debit amount must be non-negative")
	}
	acct, err := m.GetAccount(from)
	if err != nil {
		return err
	}
	if acct.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("state: insufficient balance")
	}
	acct.Balance = new(big.Int).Sub(acct.Balance, amount)
	if err := m.PutAccount(from, acct); err != nil {
		return err
	}
	return m.ReapIfDust(from)
}
