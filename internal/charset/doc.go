// Package charset holds the built-in table of suspicious code points.
//
// The table is ordered and fixed at build time. Matching only ever sees the
// runes; categories and notes exist for hover text and the `chars` command.
package charset
