// Package bunstore implements store.Store on PostgreSQL via the Bun ORM.
// This is the recommended backend for production deployments: job state
// transitions, timers, and log items all live in one database, and the
// timer table's primary key gives SetTimer its replace semantics.
package bunstore
