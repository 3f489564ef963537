// Package cmd provides the command-line interface for pmctl.
//
// This package contains the root command and its subcommands:
//   - check: verify local prerequisites
//   - up: bootstrap the full platform-mesh environment
//   - down: tear the environment down
//   - status: report cluster and add-on status
package cmd
