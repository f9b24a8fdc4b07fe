// Package textutil provides text helpers for turning media titles into safe
// artifact file stems and for abbreviating references in console output.
//
// Titles are NFC-normalised before sanitisation so the same title produced by
// different tools maps to the same cached artifact paths.
package textutil
