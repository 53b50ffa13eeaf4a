// Package config loads the dashboard configuration.
//
// Values are resolved in order of precedence:
//
//	1. Environment variables with the ZILLOW_ prefix (highest)
//	2. A YAML file named by -config, ZILLOW_CONFIG_FILE, or found in
//	   config.yaml / configs/config.yaml
//	3. Default() (lowest)
//
// Environment variables follow the struct layout:
//
//	ZILLOW_SERVER_PORT=8080
//	ZILLOW_LOGGING_LEVEL=debug
//	ZILLOW_SOURCES_STATE_ZHVI=file:///data/State_zhvi.csv
//	ZILLOW_SOURCES_FETCH_TIMEOUT=2m
//	ZILLOW_DASHBOARD_DEFAULT_STATES=CA,NY
//
// A YAML file uses the same section names:
//
//	sources:
//	  county_zhvi: https://example.org/County_zhvi.csv
//	  concurrency: 2
//	dashboard:
//	  histogram_bins: 40
//
// Paths are resolved relative to the executable, never the working directory.
package config
