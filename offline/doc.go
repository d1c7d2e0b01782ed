// Package offline holds requests issued while the network is down.
//
// A Queue is an ordered list of entries, each pairing an item with a Future.
// The Future is a single-assignment result slot: the first Resolve or Reject
// wins and every later call is a no-op, so an entry can never be completed
// twice even if a drain races with shutdown.
package offline
