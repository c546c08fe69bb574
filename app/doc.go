// Package app implements the main application loop: it binds a frame
// parser to a panel driver, decodes the wire protocol's flags and
// optional rectangle header, dispatches to the right driver operation,
// tracks the last-displayed framebuffer, and acknowledges each
// successful update back over the transport.
package app
