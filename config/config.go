// Package config loads and validates the governance-tunable parameter set
// every native module reads at genesis, following the teacher's
// ApplyDefaults/EnsureDefaults idiom (native/loyalty/params.go,
// native/lending/config.go) and its services/lendingd/config loader
// (TOML/YAML decode, normalize, validate).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"stardust/native/affiliate"
	"stardust/native/arbitration"
	"stardust/native/bridge"
	"stardust/native/evidence"
	"stardust/native/maker"
	"stardust/native/otcorder"
	"stardust/native/social"
	"stardust/native/storagecoord"
)

// Root is the full set of module parameters a node loads at startup and
// hands to runtime.New. Fields are exported and tagged for both TOML and
// YAML so either file format round-trips the same struct.
type Root struct {
	Affiliate    affiliate.Params    `toml:"affiliate" yaml:"affiliate"`
	Arbitration  arbitration.Params  `toml:"arbitration" yaml:"arbitration"`
	Bridge       bridge.Params       `toml:"bridge" yaml:"bridge"`
	Evidence     evidence.Params     `toml:"evidence" yaml:"evidence"`
	Maker        maker.Params        `toml:"maker" yaml:"maker"`
	OTCOrder     otcorder.Params     `toml:"otcorder" yaml:"otcorder"`
	Social       social.Params       `toml:"social" yaml:"social"`
	StorageCoord storagecoord.Params `toml:"storagecoord" yaml:"storagecoord"`
}

// Default returns the parameter set each module's own DefaultParams builds,
// the fallback a node runs with before any governance proposal touches it.
func Default() Root {
	return Root{
		Affiliate:    affiliate.DefaultParams(),
		Arbitration:  arbitration.DefaultParams(),
		Bridge:       bridge.DefaultParams(),
		Evidence:     evidence.DefaultParams(),
		Maker:        maker.DefaultParams(),
		OTCOrder:     otcorder.DefaultParams(),
		Social:       social.DefaultParams(),
		StorageCoord: storagecoord.DefaultParams(),
	}
}

// LoadTOML reads and validates a TOML parameter file, starting from Default
// so an omitted section keeps its module default rather than zeroing out.
func LoadTOML(path string) (Root, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Root{}, fmt.Errorf("config: decode toml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Root{}, err
	}
	return cfg, nil
}

// LoadYAML reads and validates a YAML parameter file; the alternate format
// genesis fixtures and tests use in place of TOML.
func LoadYAML(path string) (Root, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Root{}, fmt.Errorf("config: read yaml: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Root{}, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Root{}, err
	}
	return cfg, nil
}

// Validate enforces the cross-field invariants each module's SetParams
// would otherwise discover one governance call at a time; catching them at
// load time surfaces a bad genesis file before the chain starts producing
// blocks on top of it.
func (r Root) Validate() error {
	if err := affiliate.ValidatePercents(r.Affiliate.Percents); err != nil {
		return fmt.Errorf("config: affiliate: %w", err)
	}
	if r.Arbitration.MinFeeAmount == nil || r.Arbitration.MinFeeAmount.Sign() < 0 {
		return fmt.Errorf("config: arbitration: MinFeeAmount must be non-negative")
	}
	if r.Bridge.SwapTimeoutBlocks == 0 {
		return fmt.Errorf("config: bridge: SwapTimeoutBlocks must be positive")
	}
	if r.Bridge.BlockTimeSeconds <= 0 {
		return fmt.Errorf("config: bridge: BlockTimeSeconds must be positive")
	}
	if r.Evidence.MaxCIDLen <= 0 {
		return fmt.Errorf("config: evidence: MaxCIDLen must be positive")
	}
	if r.Maker.RejectSlashBpsMax > 10_000 {
		return fmt.Errorf("config: maker: RejectSlashBpsMax exceeds 10000 bps")
	}
	if r.OTCOrder.MinOrderSize == nil || r.OTCOrder.MinOrderSize.Sign() <= 0 {
		return fmt.Errorf("config: otcorder: MinOrderSize must be positive")
	}
	if r.Social.MaxFollowingPerUser == 0 || r.Social.MaxFollowersPerTarget == 0 {
		return fmt.Errorf("config: social: follower/following caps must be positive")
	}
	if r.StorageCoord.MinCapacityGiB == 0 {
		return fmt.Errorf("config: storagecoord: MinCapacityGiB must be positive")
	}
	return nil
}
