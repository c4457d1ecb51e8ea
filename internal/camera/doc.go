// Package camera holds the single shared camera configuration
// document. Updates are partial: a request supplies any subset of the
// recognised fields and each supplied value is coerced to the field's
// declared type before being merged. One bad value rejects the entire
// update, keeping the stored document consistent.
//
// The recognised field set is fixed in a coercion table rather than
// branched on inline, so the merge logic can be audited and tested
// field by field.
package camera
