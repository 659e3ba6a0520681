// Package broadcaster publishes stored scenario reports to Kafka, advancing
// each report through NEW → SENT → ACKED (or FAILED, retried) in the ledger.
package broadcaster
