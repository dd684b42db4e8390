package bridge

import (
	"encoding/binary"

	nativecommon "stardust/native/common"
	"stardust/core/types"
)

func quotaKey(addr types.AccountID, epoch uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], epoch)
	key := append([]byte("bridge/swap_quota/"), addr.Bytes()...)
	return append(key, buf[:]...)
}

// kvQuotaStore backs nativecommon.Store with the engine's own KV state,
// one counter per (user, epoch) pair.
type kvQuotaStore struct{ state engineState }

func (s kvQuotaStore) Load(module string, epoch uint64, addr []byte) (nativecommon.QuotaNow, bool, error) {
	var id types.AccountID
	copy(id[:], addr)
	var now nativecommon.QuotaNow
	ok, err := s.state.KVGet(quotaKey(id, epoch), &now)
	if err != nil {
		return nativecommon.QuotaNow{}, false, err
	}
	return now, ok, nil
}

func (s kvQuotaStore) Save(module string, epoch uint64, addr []byte, counters nativecommon.QuotaNow) error {
	var id types.AccountID
	copy(id[:], addr)
	return s.state.KVPut(quotaKey(id, epoch), counters)
}

// checkSwapQuota enforces the per-user, per-window swap request cap before a
// new official swap locks funds (replay/spam throttling, spec §8).
func (e *Engine) checkSwapQuota(user types.AccountID) error {
	if e.params.SwapQuota.MaxRequestsPerMin == 0 {
		return nil
	}
	window := e.params.SwapQuotaWindowBlocks
	if window == 0 {
		return nil
	}
	store := kvQuotaStore{state: e.state}
	epoch := uint64(e.nowFn()) / uint64(window)
	prev, _, err := store.Load("bridge.swap", epoch, user.Bytes())
	if err != nil {
		return err
	}
	next, err := nativecommon.CheckQuota(e.params.SwapQuota, epoch, prev, 1, 0)
	if err != nil {
		return err
	}
	return store.Save("bridge.swap", epoch, user.Bytes(), next)
}
