// Package commands defines the tourbook CLI and wires the server's
// dependency graph.
//
// Commands
//
//   - serve    Run the storefront and admin API (default)
//   - migrate  Create or update the database schema
//   - price    Format an amount the way the storefront would
//   - keys     Generate the RSA key pair used to sign session tokens
//
// The root command loads configuration and builds the logger before any
// subcommand runs.
package commands
