// Package session stores the bearer token issued by the backend at login.
//
// The token is owned by the authentication collaborator: it writes the token
// after a login and clears it on sign-out. The request client only reads it,
// once per attempt, so a token rotated while a request is retrying is picked
// up by the next attempt.
//
// Three stores are provided:
//
//   - MemoryStore keeps the token in process memory.
//   - BoltStore persists it to a local bbolt file, so the CLI stays signed in
//     between runs.
//   - RedisStore keeps it under a key in Redis, shared by several processes
//     acting for the same user.
package session
