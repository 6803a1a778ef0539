// Package generation turns a free-text prompt into a batch of task candidates.
//
// The Engine runs a two-tier protocol. The primary tier asks an external
// RawGenerator (Gemini in production) for JSON and parses it; the fallback
// tier synthesizes candidates locally from the prompt. Any primary failure,
// whether missing configuration, an API error, a timeout, a panic or an
// unparseable response, is converted into a fallback run, so Generate never
// returns an error to its caller.
package generation
