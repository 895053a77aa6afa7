// Package fetch provides the page fetchers behind the scan pipeline: a
// cheap colly-based HTTP probe, a chromedp headless browser fetch, and a
// promoting fetcher that tries the probe first and falls back to the browser
// when the page demands JavaScript or the probe was turned away.
package fetch
