// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing core model objects (turns,
// histories, events) and asserting behaviors. These helpers only depend on
// the core package. They are not intended for production usage.
package testutil
