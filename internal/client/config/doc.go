// Package config loads runtime configuration for the ProjectHub client.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. PROJECTHUB_* environment variables.
//  4. Command-line flags.
//
// Example JSON:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "admin_email": "lead@example.com",
//	  "online_check_interval": "3s",
//	  "request_timeout": "15s"
//	}
package config
