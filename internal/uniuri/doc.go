// Package uniuri generates cryptographically secure random strings. The console uses it
// for generated account passwords.
package uniuri
