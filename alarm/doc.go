// Package alarm implements durable per-job timers and the poller that
// fires them. Each job has at most one pending timer; setting a new
// timer replaces the old one. Timers survive process restarts because
// they live in the store, and a fired timer is only cleared once the
// job reaches a terminal status, so a crash mid-resumption leaves the
// timer due and the slice re-fires.
package alarm
