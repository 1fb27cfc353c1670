// Package survey defines the authored survey model: surveys, questions,
// trigger configuration, and the response/submission records produced when a
// visitor answers one.
//
// Surveys are loaded once at startup (see internal/cueload) and are immutable
// at runtime. Validation happens at load time so the rest of the engine can
// assume a well-formed model.
package survey
