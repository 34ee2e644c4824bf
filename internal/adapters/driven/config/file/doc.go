// Package file provides the TOML-backed configuration store.
// Keys are flat dot-separated names in memory ("drive.max_depth") and
// nested tables on disk ([drive] max_depth = 64).
package file
