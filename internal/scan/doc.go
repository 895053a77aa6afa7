// Package scan implements competitor price discovery over shopping search
// results: extracting candidate listings from result pages, scoring them
// against the catalog product, and reducing them to one best price per
// registered competitor storefront.
package scan
