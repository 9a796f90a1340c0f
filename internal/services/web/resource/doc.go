// Package resource composes the request cache, the fetch executor and the
// view-model transformers into one read handle per resource family.
//
// Hooks hold no state of their own. The cache stores the raw payload for a
// key and every hook call transforms it again, so all callers of one key see
// the same entry.
package resource
