// Package cli holds the environment fallbacks shared by linkctl's persistent
// flags.
package cli
