// Package domain holds the core types and interfaces of the vote
// engine. It has no dependencies on adapters; adapters implement the
// interfaces defined here.
package domain
