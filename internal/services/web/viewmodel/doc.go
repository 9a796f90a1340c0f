// Package viewmodel maps raw remote API payloads into the stable shapes the
// web pages render.
//
// Every transformer is total: missing or malformed fields map to documented
// defaults instead of errors, so a schema drift upstream degrades one value
// rather than the whole page.
package viewmodel
