/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides an in-memory cache with LRU eviction, optional entry expiration,
// de-duplicated loading of missing entries, and Prometheus metrics.
// It keeps per-project Phrase locale IDs and per-key rate limiter state.
package lrucache
