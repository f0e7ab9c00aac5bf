// Package errors provides coded, categorized errors for sizewatch.
//
// Each error carries a short code (e.g. "E100") that maps to a registered
// message and explanation, so the same failure reads the same way in
// logs, the CLI and error frames sent to clients.
//
// # Categories
//
//   - registration: invalid arguments to ListenTo and friends
//   - install: a probe could not be installed on an element
//   - protocol: malformed frames or handshake failures
//   - config: invalid configuration files or values
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New("E100").WithDetail("ListenTo called without elements")
//	fmt.Println(err.Format())
//	// ERROR E100: No elements given
//	//
//	//   ListenTo called without elements
//
// Errors wrap an underlying cause so callers can match sentinels with the
// standard library errors.Is.
package errors
