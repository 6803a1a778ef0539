// Package gemini implements generation.RawGenerator on top of Google's Gemini
// API.
//
// The generator renders a prompt template with the goal text and the number
// of tasks requested, asks the model for a JSON array constrained by a
// response schema, and returns the model's text untouched. Parsing and the
// fallback decision belong to the generation.Engine.
//
// Transient API failures are retried with exponential backoff and jitter.
// Safety blocks and empty responses are permanent and returned immediately.
package gemini
