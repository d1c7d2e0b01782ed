// Package netstate tracks whether the process believes it has network
// connectivity.
//
// A Monitor holds a single online/offline flag. It is created by the host and
// passed to the request client, which reads it before dispatching and
// subscribes to it to drain its offline queue on reconnect. The flag is
// flipped by whatever connectivity signal the host has: an OS event, a
// Prober polling the backend, or a test.
package netstate
