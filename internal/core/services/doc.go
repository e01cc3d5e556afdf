// Package services contains the core application services implementing the
// driving ports. Services orchestrate the driven ports (scanner, extractors,
// chunker, embedding service, vector index) without depending on any
// concrete adapter.
package services
