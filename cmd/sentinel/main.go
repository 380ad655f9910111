// Sentinel is the admission-control daemon for the CasesDash backend.
//
// It bounds how often each principal and the system as a whole may invoke
// categorized operations, tracks shared daily budgets, and temporarily
// blocks abusive usage patterns, protecting the shared spreadsheet backend
// from overload.
//
// Usage:
//
//	# Start with default configuration
//	sentinel run
//
//	# Start with a custom configuration file
//	sentinel run --config /etc/sentinel/config.yaml
//
//	# Validate a configuration file
//	sentinel validate --config config.yaml
//
//	# Show version information
//	sentinel version
package main

func main() {
	Execute()
}
