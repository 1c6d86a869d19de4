// Package rlwe implements the Ring-LWE arithmetic used by the device
// authentication handshake: polynomials over Z_Q[x]/(x^N+1), explicit PRNG
// state for deterministic and fresh sampling, and key generation.
//
// All parameters are fixed at build time. Polynomials are statically sized
// arrays whose coefficients are always held reduced into [0, Q); every
// operation re-reduces its output before returning it.
package rlwe
