// Package report handles catalog input and scan result output: reading the
// product catalog JSON, writing flattened result files, and persisting rows
// to Postgres.
package report
