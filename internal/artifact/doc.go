// Package artifact stores page snapshots captured during a scan run.
package artifact
