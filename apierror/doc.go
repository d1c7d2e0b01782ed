// Package apierror defines the error payloads exchanged with the Influencore
// backend.
//
// The backend answers failures with a JSON body. Revisions of the API have
// used three shapes, all of which ParseMessage understands:
//
//	{"error": {"code": "CONFLICT", "message": "Email already registered"}}
//	{"message": "Email already registered"}
//	{"error": "Email already registered"}
//
// AppError is the typed form of the first shape. The fake backend in
// testutil writes it, and validation reports field errors through it.
package apierror
