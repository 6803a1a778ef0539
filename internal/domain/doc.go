// Package domain defines the core business entities of the task tracker and the
// pure validation rules that guard them.
//
// The package has no knowledge of storage or transport. The Task entity, the
// candidate shape produced by task generation, and the presence-aware partial
// update payload all live here so every other layer shares one vocabulary.
package domain
