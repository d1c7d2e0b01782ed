// Package component defines the lifecycle contract shared by the long-lived
// pieces of the client: the request client itself, the connectivity prober
// and the session stores that hold open files or connections.
//
// A Registry starts components in registration order and stops them in
// reverse, so dependencies are registered first.
package component
