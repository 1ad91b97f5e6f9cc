// Package language normalizes the BCP 47 tags attached to alternatives.
//
// Tags are canonicalized once when an alternative is created; the display
// and ISO 639-1 projections used by tables and library registration are
// derived from the stored canonical form.
package language
