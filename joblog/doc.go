// Package joblog records structured job logs: one record written per job,
// finalized exactly once to a terminal status with the messages the
// processor accumulated across resumptions.
package joblog
