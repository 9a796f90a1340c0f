// Package storage declares persistence contracts for web-owned data.
//
// The receipts ledger is the only web-owned table: it backs campaigns whose
// receipts are not yet served by the remote API.
package storage
