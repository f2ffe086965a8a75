// Package config loads SkyScout's configuration.
//
// # Resolution Order
//
//  1. A dotenv file is loaded into the process environment. The default is
//     ./.env and may be absent; an explicitly named file must exist.
//     Variables already set in the environment win.
//  2. The TOML file is read from the given path, or
//     ~/.config/skyscout/config.toml. A missing file means defaults.
//  3. SKYSCOUT_API_KEY and SKYSCOUT_API_HOST override the file.
//
// # TOML Format
//
//	api_key = "..."
//	api_host = "sky-scrapper.p.rapidapi.com"
//	base_url = ""                  # defaults to https://<api_host>
//	locale = "en-US"
//	market = "en-US"
//	currency = "USD"
//	country_code = "US"
//	log_dir = "~/.local/share/skyscout/logs"
//	export_dir = "~/.local/share/skyscout/exports"
//	suggest_delay_ms = 300
//	min_query_length = 2
//	request_timeout_seconds = 15
//	cache_ttl_seconds = 600
//	rate_interval_ms = 250
//
// Every field is optional. Blank strings and zero numbers fall back to the
// defaults. Negative numbers are rejected, except cache_ttl_seconds where
// a negative value turns the airport lookup cache off. Tilde expansion applies to both
// directories.
//
// Load never checks that credentials exist. Call Config.Validate before
// building an API client.
package config
