package errors

// DebugMode controls how invariant violations are surfaced.
// When true, callers that detect a violated lifecycle invariant panic
// after reporting it, so broken instrumentation fails fast during
// development. When false, violations are reported to the handler and
// execution continues.
var DebugMode = true

// SetDebugMode enables or disables debug mode for the module.
func SetDebugMode(debug bool) {
	DebugMode = debug
}
