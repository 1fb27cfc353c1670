// Package store provides the persistent key/value store backing survey
// eligibility state. Keys live in one of two partitions: Session, which lasts
// for one browsing visit, and Durable, which survives across visits.
//
// Two implementations are provided: Memory (both partitions in process
// memory, the default when the host supplies its own persistence adapter)
// and SQLite (durable partition on disk). Hosts may implement Store
// themselves to bridge to whatever storage the environment offers.
package store
