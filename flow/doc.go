// Package flow models the external workflow graph a job may occupy a
// position in, and the handoff orchestration that runs when a job inside
// a workflow completes successfully.
//
// The graph itself and the interpreter that decides what happens next are
// external collaborators; this package defines their contracts and the
// Orchestrator that resolves the job's current step and invokes the
// interpreter with the job's outputs.
package flow
