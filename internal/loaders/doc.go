// Package loaders implements the installation units of the nori pipeline
// and assembles the per-agent pipelines.
package loaders
