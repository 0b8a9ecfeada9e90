// Package types contains the shared types and interfaces used across the
// reflow library.
//
// This package has no dependencies on other reflow packages, which allows
// internal packages to depend on it without importing the root package.
// The root reflow package re-exports the commonly used definitions via
// type aliases.
package types
