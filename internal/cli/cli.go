// Package cli wires the assistant together: the cobra command tree,
// the interactive prompt loop and the query pipeline behind both.
package cli

import "context"

// Run executes the root command under the given base context. The
// context is cancelled on shutdown signals so long-running commands
// like watch stop cleanly.
func Run(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
