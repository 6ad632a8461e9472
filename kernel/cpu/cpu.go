// Package cpu exposes the handful of CPU primitives used during boot.
package cpu
