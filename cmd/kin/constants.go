package main

// Default limits for CLI commands.
const (
	DefaultPeopleLimit     = 50
	DefaultSuggestionLimit = 20
	DefaultAuditLimit      = 20
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

var validOutputFormats = []string{formatText, formatJSON}

// Valid import and export formats.
var validFileFormats = []string{"json", "csv"}
