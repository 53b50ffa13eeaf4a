package config

// Application constants
const (
	AppName    = "Zillow Housing Dashboard"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable: ZILLOW_SERVER_PORT, ...
	EnvPrefix = "ZILLOW"
	// ConfigFileEnv names an explicit YAML config file.
	ConfigFileEnv = "ZILLOW_CONFIG_FILE"

	// Year ranges offered by the dashboard controls. ZORI starts in 2014.
	MinPriceYear = 2000
	MaxPriceYear = 2022
	MinRentYear  = 2014
	MaxRentYear  = 2022

	DefaultHistogramBins = 30
	MaxHistogramBins     = 200

	DefaultChartWidth  = 1024
	DefaultChartHeight = 600
	MaxChartDimension  = 4096

	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024
)

// Default Zillow research CSV locations.
const (
	zillowCSVBase = "https://files.zillowstatic.com/research/public_csvs"

	DefaultStateZHVIURL  = zillowCSVBase + "/zhvi/State_zhvi_uc_sfrcondo_tier_0.33_0.67_sm_sa_month.csv"
	DefaultCountyZHVIURL = zillowCSVBase + "/zhvi/County_zhvi_uc_sfrcondo_tier_0.33_0.67_sm_sa_month.csv"
	DefaultMetroZHVIURL  = zillowCSVBase + "/zhvi/Metro_zhvi_uc_sfrcondo_tier_0.33_0.67_sm_sa_month.csv"
	DefaultZipZHVIURL    = zillowCSVBase + "/zhvi/Zip_zhvi_uc_sfrcondo_tier_0.33_0.67_sm_sa_month.csv"
	DefaultStateZORIURL  = zillowCSVBase + "/zori/State_zori_uc_sfrcondomfr_sm_month.csv"
	DefaultMetroZORIURL  = zillowCSVBase + "/zori/Metro_zori_uc_sfrcondomfr_sm_month.csv"
	DefaultZipZORIURL    = zillowCSVBase + "/zori/Zip_zori_uc_sfrcondomfr_sm_month.csv"

	DefaultCountyBoundariesURL = "https://raw.githubusercontent.com/plotly/datasets/master/geojson-counties-fips.json"
)

// DefaultStates seeds the time series multi-select.
var DefaultStates = []string{"CA", "NY", "TX", "FL", "WA"}
