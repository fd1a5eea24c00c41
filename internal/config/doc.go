// Package config defines configuration structures for the croon CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (CROON_ prefix)
//   - YAML configuration file
//
// # Structure
//
//	accounts:
//	  - "+15550001111"
//	  - "+15550002222"
//	mode: description
//	output: file://.
//	on_error: stop
//	poll:
//	  interval: 5s
//	  max_attempts: 120
//	http_timeout: 30s
//	buffer_size: 512KB
//	log_level: info
package config
