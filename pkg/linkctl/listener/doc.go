// Package listener receives deep-link activations for the lifetime of the
// process. The OS launches "linkctl open <uri>", which forwards the URI over a
// per-scheme unix socket to the running listener; the listener queues it and
// a single dispatcher hands activations to the subscriber in arrival order.
package listener
