// Package progress provides progress reporting for asset downloads.
//
// # Output Format
//
//	[croon] Downloading 2 assets
//	[croon] Assets: 1 completed | 1 in-progress | 0 pending | 3.52 MB
//	[croon] Downloaded 2/2 assets (7.12 MB) in 14s
package progress
