// Package services orchestrates the calendar view over the ledger store:
// month loading with stale-result discard, cache patching after mutations
// and change event publishing.
package services
