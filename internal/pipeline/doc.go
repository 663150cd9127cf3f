// Package pipeline orchestrates renders: input discovery, the single render
// flow (validate, probe, reconcile, plan, execute with fallback, verify,
// record, publish) and the sequential batch runner with its summary.
package pipeline
