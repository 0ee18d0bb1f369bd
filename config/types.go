package config

// ServerConfig is the service-level configuration, loaded from a TOML
// file or from SWAPENGINE_* environment variables.
type ServerConfig struct {
	// rpc configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Upstream endpoints
	RegistryPath   string `toml:"registry_path" mapstructure:"registry_path"`
	TradeAPIURL    string `toml:"trade_api_url" mapstructure:"trade_api_url"`
	TransferAPIURL string `toml:"transfer_api_url" mapstructure:"transfer_api_url"`
	PriceAPIURL    string `toml:"price_api_url" mapstructure:"price_api_url"`

	// Engine tunables
	MaxHops              int    `toml:"max_hops" mapstructure:"max_hops"`
	MaxQuotePaths        int    `toml:"max_quote_paths" mapstructure:"max_quote_paths"`
	CostCutoffMultiplier string `toml:"cost_cutoff_multiplier" mapstructure:"cost_cutoff_multiplier"`
	TieBreak             string `toml:"tie_break" mapstructure:"tie_break"`
}

// RegistryConfig is the on-disk shape of the chain-and-edge registry.
type RegistryConfig struct {
	Chains        []ChainConfig        `toml:"chains" json:"chains"`
	PoolVenues    []PoolVenueConfig    `toml:"pool_venues" json:"pool_venues"`
	TransferLanes []TransferLaneConfig `toml:"transfer_lanes" json:"transfer_lanes"`
}

type ChainConfig struct {
	ID           string        `toml:"id" json:"id"`
	Name         string        `toml:"name" json:"name"`
	Bech32Prefix string        `toml:"bech32_prefix" json:"bech32_prefix"`
	BlockTime    string        `toml:"block_time" json:"block_time"`
	UtilityAsset string        `toml:"utility_asset" json:"utility_asset"`
	Assets       []AssetConfig `toml:"assets" json:"assets"`
}

type AssetConfig struct {
	ID       string `toml:"id" json:"id"`
	Symbol   string `toml:"symbol" json:"symbol"`
	Decimals int    `toml:"decimals" json:"decimals"`
	// ExistentialDeposit is a base-10 integer string so large planck
	// values survive the round trip exactly.
	ExistentialDeposit string `toml:"existential_deposit" json:"existential_deposit"`
	Sufficient         bool   `toml:"sufficient" json:"sufficient"`
}

// PoolVenueConfig declares one DEX venue and the asset pairs it trades.
// Every pair produces edges in both directions, pools are symmetric.
type PoolVenueConfig struct {
	ID             string           `toml:"id" json:"id"`
	ChainID        string           `toml:"chain_id" json:"chain_id"`
	Weight         int              `toml:"weight" json:"weight"`
	ApproxCostFiat string           `toml:"approx_cost_fiat" json:"approx_cost_fiat"`
	Pairs          []PoolPairConfig `toml:"pairs" json:"pairs"`
}

type PoolPairConfig struct {
	AssetA string `toml:"asset_a" json:"asset_a"`
	AssetB string `toml:"asset_b" json:"asset_b"`
}

// TransferLaneConfig declares one cross-chain transfer lane.
type TransferLaneConfig struct {
	ID               string `toml:"id" json:"id"`
	Kind             string `toml:"kind" json:"kind"` // reserve | teleport
	OriginChain      string `toml:"origin_chain" json:"origin_chain"`
	OriginAsset      string `toml:"origin_asset" json:"origin_asset"`
	DestinationChain string `toml:"destination_chain" json:"destination_chain"`
	DestinationAsset string `toml:"destination_asset" json:"destination_asset"`
	Weight           int    `toml:"weight" json:"weight"`
	DeliveryFeeRate  string `toml:"delivery_fee_rate" json:"delivery_fee_rate"`
	ApproxCostFiat   string `toml:"approx_cost_fiat" json:"approx_cost_fiat"`
	Bidirectional    bool   `toml:"bidirectional" json:"bidirectional"`
}
