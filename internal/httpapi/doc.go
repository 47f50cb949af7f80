// Package httpapi exposes the goSession engine over HTTP with gin: signup,
// email confirmation, password login, refresh, profile and logout.
package httpapi
