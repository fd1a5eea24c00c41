// Package studio is the client for the remote generation service: create a
// generation job, query batch status, and resolve asset metadata.
//
// Quota exhaustion is a first-class result (ErrQuotaExhausted), detected
// from the response status code rather than by matching error strings, so
// the orchestrator can route it to the next account.
package studio
