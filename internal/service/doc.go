// Package service contains the task use cases. It coordinates domain
// validation, the task store and the generation engine, and translates their
// errors into the sentinels and typed errors the API layer maps to responses.
//
// The service depends on the store.TaskStore interface and on a Generator,
// never on a specific database or model provider.
package service
