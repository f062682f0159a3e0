package redis

// Redis key naming conventions for stint data.
// All keys are prefixed with "stint:" to avoid collisions.

const keyPrefix = "stint:"

// stateKey returns the Hash key for a job state: stint:job:{id}
func stateKey(id string) string { return keyPrefix + "job:" + id }

// checkpointKey returns the key for a job checkpoint: stint:checkpoint:{id}
func checkpointKey(id string) string { return keyPrefix + "checkpoint:" + id }

// itemKey returns the key for a content item: stint:item:{id}
func itemKey(id string) string { return keyPrefix + "item:" + id }

// timersKey is the Sorted Set of pending timers, scored by fire time.
const timersKey = keyPrefix + "timers"

// terminalKey is the Sorted Set of terminal job IDs, scored by last
// update time. Feeds the retention sweeper.
const terminalKey = keyPrefix + "terminal"
