// Package sanitizer normalizes user-supplied identifiers and labels before
// they reach validation and storage. Every function is pure and never fails;
// input that cannot be normalized comes back empty so validation rejects it.
package sanitizer
