// Package pool orchestrates generation across multiple authenticated
// accounts: eager pool construction, sequential fallback with a
// configurable error policy, and bounded completion polling.
package pool
