/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package phrase is a minimal client of the Phrase Strings API v2:
// listing project locales, creating keys and setting translations.
package phrase
