// Package security summarizes the security-relevant settings of an engine
// into a Report that binaries can log at startup.
package security
