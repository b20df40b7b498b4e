// Package errors provides error handling conventions for the apm CLI.
//
// Every error created in the module goes through the wrappers here
// ([New], [Newf], [Wrap], [Wrapf], [Mark], [Is], [As], [Join]), which
// delegate to cockroachdb/errors so errors carry stack traces and stay
// matchable against sentinels across wrapping.
//
// # Hints
//
// Libraries attach user-facing hints with [WithHint]. The CLI adds its
// own suggestion with [NewUserError] or [NewSystemError]; [Suggestions]
// returns both, suggestion first.
//
// # Exit Codes
//
//   - 0: success
//   - ExitUser (1): bad input, invalid configuration, aborted prompt
//   - ExitSystem (2): I/O failures, partial copies, damaged backups
//
// [ExitCode] maps any error to one of these:
//
//	if err := commands.Execute(); err != nil {
//	    os.Exit(commands.ReportError(os.Stderr, err))
//	}
package errors
