// Package fetch provides the HTTP client used for all EDGAR requests.
//
// The client enforces the SEC fair-access policy mechanically: a shared
// token-bucket rate limiter gates every attempt, the operator's contact
// identity travels in the User-Agent header, and transient failures are
// retried a bounded number of times with exponential backoff. Exhausting the
// attempt budget returns the last error as an ordinary value; the unbounded
// "keep trying until it works" policy belongs to the crawl stages, not here.
package fetch
