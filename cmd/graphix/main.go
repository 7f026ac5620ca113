// Package main provides the entry point for the graphix CLI.
//
// graphix crawls a website from a seed URL and prints the tree of pages
// reachable from it, staying on the seed's domain and under its path.
//
// Usage:
//
//	graphix crawl <seed-url>
//	graphix crawl --depth 2 --json <seed-url> <seed-url>
//	graphix history <seed-url>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
