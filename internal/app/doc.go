// Package app is the composition root for SkyScout.
//
// Run loads the configuration (dotenv, TOML, environment overrides),
// refuses to start without an API key, opens the log file, builds the API
// client and the cached airport directory in front of it, then hands
// everything to the UI and blocks until the user quits.
//
// Configuration and credential problems are returned before the terminal
// is taken over. Errors from individual searches never end the program;
// the UI shows them and they are written to the log.
package app
