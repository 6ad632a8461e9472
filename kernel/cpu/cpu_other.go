//go:build !amd64 && !arm64

package cpu

// Halt blocks the calling goroutine forever.
func Halt() {
	select {}
}
