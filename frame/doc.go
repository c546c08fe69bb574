// Package frame implements the resynchronizing, CRC-validated binary
// frame reader that sits between the serial transport and the
// application loop. It locates frames in an otherwise noisy byte
// stream, validates their length and checksum, and silently drops
// anything that doesn't check out rather than ever wedging.
package frame
