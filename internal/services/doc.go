// Package services holds the failure markers and context helpers shared by
// the per-file workflow and the catalog integrations.
//
// Every per-file error is wrapped with one marker via Wrap. FailureStatus and
// Hint turn that marker into the ledger status (review or failed) and the
// operator's next step.
package services
