// Package extractors provides implementations of the Extractor interface
// for the supported document formats. Each extractor knows how to turn a
// specific format's bytes into plain-text sections with provenance
// locators.
//
// Extractors are registered with the Registry at startup.
package extractors
