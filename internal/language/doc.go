// Package language normalizes language hints (ISO 639-1/639-2 codes or English
// names) into the two-letter codes accepted by the transcription engine.
package language
