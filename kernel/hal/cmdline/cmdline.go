// Package cmdline scans the kernel command line passed by the bootloader.
package cmdline

import "bytes"

// Lookup returns the value of the first space-separated argument named key.
// An argument of the form "key=value" yields value; a bare "key" yields an
// empty, non-nil value. The returned slice aliases cmdline.
func Lookup(cmdline []byte, key string) ([]byte, bool) {
	for len(cmdline) > 0 {
		var arg []byte
		if end := bytes.IndexByte(cmdline, ' '); end != -1 {
			arg, cmdline = cmdline[:end], cmdline[end+1:]
		} else {
			arg, cmdline = cmdline, nil
		}

		name, value := arg, arg[len(arg):]
		if eq := bytes.IndexByte(arg, '='); eq != -1 {
			name, value = arg[:eq], arg[eq+1:]
		}

		if string(name) == key {
			return value, true
		}
	}

	return nil, false
}
