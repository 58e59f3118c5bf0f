// Package config loads and validates configuration for the media CMS API.
//
// # Configuration Loading
//
// Configuration is layered with koanf, later layers overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file: $CONFIG_PATH, else the first of DefaultConfigPaths
//  3. Environment variables listed in envMappings
//
//	cfg, err := config.Load()
//
// # Environment Variables
//
//	SERVER_PORT            HTTP port (default 8080)
//	SERVER_ENV             development, production or test
//	CORS_ALLOWED_ORIGINS   comma-separated origins
//	DB_HOST, DB_PORT       SurrealDB endpoint
//	DB_NAMESPACE, DB_DATABASE, DB_USER, DB_PASSWORD
//	JWT_PUBLIC_KEY_PATH    PEM key used to verify bearer tokens
//	JWT_PRIVATE_KEY_PATH   PEM key used by `mediactl token`
//	RATE_LIMIT_ENABLED, RATE_LIMIT_RATE, RATE_LIMIT_WINDOW, RATE_LIMIT_BURST
//	AUTHZ_POLICY_PATH      casbin policy CSV; empty uses the embedded policy
//	MIGRATE_ON_START       apply pending migrations when the server starts
//	TAXONOMY_SEED_PATH     seed document read by the technique migration
//	LOG_LEVEL              debug, info, warn or error
package config
