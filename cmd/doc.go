// Package cmd implements the command-line interface for the gosmc
// controller client. It provides a hierarchical command structure with
// operations for reading keys, enumerating the key table and hosting a
// forwarding agent.
//
// The package is organized into several subpackages:
//
//   - read: Read one or more keys and decode their values
//   - list: Enumerate the key table with per-key type information
//   - watch: Periodically sample keys, optionally exporting them as metrics
//   - serve: Host a simulated device behind a forwarding agent
//   - perf: Performance testing against any endpoint
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See gosmc -help for a list of all commands.
package cmd
