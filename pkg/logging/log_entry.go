package logging

// LogEntry represents a structured log record with fields particularly
// relevant to evolutionary runs.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Run-specific fields
	RunID      string // Identifier of the evolution run
	Generation int    // Generation index, -1 when not inside a generation

	// General structured data
	Fields map[string]interface{}
}
