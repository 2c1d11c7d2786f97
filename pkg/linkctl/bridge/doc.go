// Package bridge connects the listener to a token sink. Each activation is
// extracted, de-duplicated and published at most once; every outcome is logged
// by kind, counted and audited without the URI or token ever leaving the
// extractor and the sink.
package bridge
