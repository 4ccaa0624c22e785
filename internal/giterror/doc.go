// Package giterror provides error inspection for failures coming back from the
// Bitbucket REST API and from the run itself. It centralizes the logic for
// deciding what kind of failure ended a run so the CLI can choose an exit code
// without string matching of its own.
package giterror
