// Package browser holds end-to-end tests that drive the console through a
// real Chromium via Playwright against a fake academy backend. They run only
// when ACADEMY_BROWSER_TESTS=1.
package browser
