/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides log.FieldLogger implementations for tests:
// a plain JSON logger writing to an arbitrary io.Writer and a Recorder that keeps entries for inspection.
package logtest
