/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides the request-count limiters used for admission control.
//
// Three algorithms implement the same Limiter contract:
//   - rolling log (exact): every admission is remembered for the window duration,
//     so no trailing window ever holds more than the allowed count;
//   - sliding window (approximate, github.com/RussellLuo/slidingwindow): weighted previous and current fixed windows;
//   - leaky bucket (GCRA, github.com/throttled/throttled/v2): admissions are spread evenly over the window.
//
// Limiters may be global or keep independent state per key, in an LRU cache bounded by maxKeys.
package ratelimit
