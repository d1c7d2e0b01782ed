// Package testutil provides a fake Influencore backend for tests and for the
// CLI's mock mode.
//
// The backend is a gin router serving the endpoints the client talks to:
//
//	GET  /health
//	POST /api/auth/register   {name, email, password} -> 201 {token, user}
//	POST /api/auth/login      {email, password}       -> 200 {token, user}
//	GET  /api/auth/me                                  (bearer)
//	GET  /api/videos                                   (bearer)
//	POST /api/videos          {prompt, style, duration} (bearer)
//
// Passwords are bcrypt-hashed and tokens are HS256 JWTs, so a missing,
// forged or expired token yields a real 401. Faults can be scripted per
// route to simulate slow responses, dropped connections and error statuses:
//
//	backend := testutil.NewBackend(testutil.BackendConfig{})
//	testutil.T(t).Setup(backend)
//	backend.Script("POST /api/auth/login", testutil.Delay(2*time.Second), testutil.Status(503))
//
// Backend implements TestComponent, so tests can Reset it between cases or
// Snapshot and Restore its accounts.
package testutil
