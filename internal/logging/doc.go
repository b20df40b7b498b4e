// Package logging provides structured logging for the apm CLI using slog.
//
// The package supports both text and JSON output formats, configurable log
// levels, and helpers for testing. All loggers are based on the standard
// library's [log/slog] package.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  slog.LevelInfo,
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	logger.Info("scan finished", "installations", 2)
//
// Text output shortens paths under the user's home directory to "~" and
// quotes values containing spaces, so a line like
//
//	3:04PM INFO  copied file="~/Games/World of Warcraft/_retail_/WTF/..."
//
// stays unambiguous. Colors follow [ColorEnabled].
//
// # Log Files
//
// [OpenFile] returns a JSON handler appending to a file; [Tee] sends each
// record to the terminal handler and the file handler alike.
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//		// logs appear in test output on failure
//	}
//
// # Quiet Mode
//
// Use [NewDiscard] when log output should be suppressed entirely:
//
//	logger := logging.NewDiscard()
package logging
