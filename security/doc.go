// Package security holds the TLS settings of the client transport: a custom
// CA for private backends, mutual TLS client certificates and a minimum
// protocol version.
//
//	cfg := security.TLSConfig{CAFile: "/etc/influencore/ca.pem", MinVersion: "1.3"}
//	tlsConfig, err := cfg.Build()
package security
