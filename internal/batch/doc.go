// Package batch crawls several seed URLs concurrently.
//
// Each seed is handed to its own Runner (normally a crawler.Orchestrator)
// built by a RunnerFactory, so seeds never share a visited set or an HTTP
// client. Concurrency across seeds is capped with errgroup.SetLimit.
package batch
