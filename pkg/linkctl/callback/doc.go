// Package callback parses deep-link activation URIs, decides whether they are
// OAuth callbacks for the registered scheme, and extracts the bearer token
// without ever exposing it through formatting, encoding or error text.
package callback
