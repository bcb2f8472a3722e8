// Package application wires a loaded configuration into a QA engine client
// for the chosen model backend and asks one question against the configured
// document folder, keeping the main package focused on CLI parsing.
package application
