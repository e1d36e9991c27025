// Package services contains the application services that orchestrate
// the domain over the driven ports: figure extraction, per-figure post
// generation, persistence routing and the pipeline driver.
package services
