// Package sqlite provides the receipts ledger backed by SQLite.
package sqlite
