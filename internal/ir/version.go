package ir

// Version constants for the forest schema and runtime.
const (
	// IRVersion is the statement forest schema version.
	IRVersion = "1"

	// RuntimeVersion is the wodwiki runtime version.
	RuntimeVersion = "0.1.0"
)
