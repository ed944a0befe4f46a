/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package translations collects allow-listed keys from per-locale JSON files
// and stores them as an ordered locale -> key -> value set.
package translations
