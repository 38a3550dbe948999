// Package ir provides the compiled representation of a workout script.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the statement forest the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Node ids are source byte offsets, stable across recompiles of the same text
//   - The forest is immutable once the compiler returns it
//   - Fragment amounts stay as source text; numbers are parsed where they are used
//   - All JSON tags use snake_case
package ir
