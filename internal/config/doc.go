// Package config loads the mapcastd daemon configuration.
//
// Configuration is layered, later layers overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file, chosen by extension
//  3. A .env file
//  4. MAPCAST_* environment variables
//  5. Command line flags, applied by the caller through Set
//
// Every layer addresses settings by the same dotted keys, for example
// engine.tick_interval. The environment form upper-cases the key, replaces
// dots with underscores and adds the prefix: MAPCAST_ENGINE_TICK_INTERVAL.
//
// A Watcher reloads the file when it changes and hands the new
// configuration to a callback; only the log level and the tick interval
// are meant to be applied live.
package config
