// Command adscope is the operator CLI for the adscope daemon: it uploads
// media for feature extraction, inspects daemon health, and manages the
// record cache.
package main
