// Package cli implements the interactive LookForge shell: a small REPL over
// the session manager and the studio service. It owns all terminal I/O;
// everything below it is plain library code.
package cli
