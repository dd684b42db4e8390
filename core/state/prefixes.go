package state

// Key prefixes naming the module-prefixed keyspace model in spec §3. The
// native modules do not reference these constants: each builds its keys
// from its own string literals, and some of those differ from the values
// here (for example bridge/used_tron/ and affiliate/membership/). Manager
// itself is agnostic to the prefix scheme.
const (
	PrefixAccount        = "account/"
	PrefixEscrow         = "escrow/"
	PrefixCredit         = "credit/"
	PrefixPricing         = "pricing/"
	PrefixMaker           = "maker/application/"
	PrefixMakerPool       = "maker/pool/"
	PrefixOTCOrder        = "otc/order/"
	PrefixBridgeSwap      = "bridge/swap/"
	PrefixBridgeTronTx    = "bridge/trontx/"
	PrefixArbitrationCase = "arbitration/case/"
	PrefixPinOrder        = "pin/order/"
	PrefixPinOperator     = "pin/operator/"
	PrefixEvidence        = "evidence/"
	PrefixEvidencePrivate = "evidence/private/"
	PrefixFollow          = "follow/"
	PrefixMembership      = "membership/"
	PrefixAffiliate       = "affiliate/"
	PrefixGovPause        = "gov/pause/"
)
