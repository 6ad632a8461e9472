// Package kfmt implements the kernel's text output: an allocation-free
// Printf, a ring buffer that captures output before a console exists and
// leveled one-line logging on top of both.
package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize defines the buffer size for formatting numbers and batching
// literal text.
const maxBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// earlyPrintBuffer stores Printf output produced before an output
	// sink is attached.
	earlyPrintBuffer ringBuffer

	// outputSink is the io.Writer that receives Printf output. If set to
	// nil, output is redirected to the earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and copies
// any data accumulated in the earlyPrintBuffer to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the currently attached output sink or nil if output
// is still being captured by the early ring buffer.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf provides a minimal Printf implementation that can be safely used
// before the Go allocator is available.
//
// The following subset of formatting verbs is supported:
//
//	%s the uninterpreted bytes of a string or byte slice
//	%o base 8
//	%d base 10
//	%x base 16, with lower-case letters for a-f
//	%t "true" or "false"
//
// Width is specified by an optional decimal number immediately preceding the
// verb. Strings and base-10 integers are left-padded with spaces; base-8 and
// base-16 integers are left-padded with zeroes.
//
// Only built-in string, integer and bool types are recognized. Named types
// must be converted by the caller.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		p       = printer{w: w}
		nextArg int
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			p.writeByte(format[i])
			continue
		}

		padLen, foundVerb := 0, false
	parseFmt:
		for i++; i < len(format); i++ {
			ch := format[i]
			switch {
			case ch == '%':
				p.writeByte('%')
				foundVerb = true
				break parseFmt
			case ch >= '0' && ch <= '9':
				padLen = padLen*10 + int(ch-'0')
			case ch == 'd' || ch == 'x' || ch == 'o' || ch == 's' || ch == 't':
				foundVerb = true
				if nextArg >= len(args) {
					p.write(errMissingArg)
					break parseFmt
				}

				switch ch {
				case 'o':
					p.fmtInt(args[nextArg], 8, padLen)
				case 'd':
					p.fmtInt(args[nextArg], 10, padLen)
				case 'x':
					p.fmtInt(args[nextArg], 16, padLen)
				case 's':
					p.fmtString(args[nextArg], padLen)
				case 't':
					p.fmtBool(args[nextArg])
				}
				nextArg++
				break parseFmt
			default:
				break parseFmt
			}
		}

		if !foundVerb {
			p.write(errNoVerb)
		}
	}

	for ; nextArg < len(args); nextArg++ {
		p.write(errExtraArg)
	}

	p.flush()
}

// printer batches literal bytes into a fixed buffer so that each Fprintf
// call issues a few large writes instead of one write per byte.
type printer struct {
	w   io.Writer
	buf [maxBufSize]byte
	n   int
}

func (p *printer) writeByte(b byte) {
	if p.n == len(p.buf) {
		p.flush()
	}
	p.buf[p.n] = b
	p.n++
}

func (p *printer) write(b []byte) {
	p.flush()
	doWrite(p.w, b)
}

func (p *printer) flush() {
	if p.n != 0 {
		doWrite(p.w, p.buf[:p.n])
		p.n = 0
	}
}

func (p *printer) repeat(ch byte, count int) {
	for ; count > 0; count-- {
		p.writeByte(ch)
	}
}

// fmtBool prints a formatted version of boolean value v.
func (p *printer) fmtBool(v interface{}) {
	bVal, ok := v.(bool)
	switch {
	case !ok:
		p.write(errWrongArgType)
	case bVal:
		p.write(trueValue)
	default:
		p.write(falseValue)
	}
}

// fmtString prints a formatted version of string or []byte value v, applying
// the padding specified by padLen.
func (p *printer) fmtString(v interface{}, padLen int) {
	switch castedVal := v.(type) {
	case string:
		p.repeat(' ', padLen-len(castedVal))
		// converting the string to a byte slice triggers a memory
		// allocation so it gets copied one byte at a time.
		for i := 0; i < len(castedVal); i++ {
			p.writeByte(castedVal[i])
		}
	case []byte:
		p.repeat(' ', padLen-len(castedVal))
		p.write(castedVal)
	default:
		p.write(errWrongArgType)
	}
}

// fmtInt prints out a formatted version of v in the requested base, applying
// the padding specified by padLen.
func (p *printer) fmtInt(v interface{}, base uint64, padLen int) {
	var (
		uval     uint64
		negative bool
		digits   [maxBufSize]byte
		count    int
	)

	switch t := v.(type) {
	case uint8:
		uval = uint64(t)
	case uint16:
		uval = uint64(t)
	case uint32:
		uval = uint64(t)
	case uint64:
		uval = t
	case uint:
		uval = uint64(t)
	case uintptr:
		uval = uint64(t)
	case int8:
		uval, negative = abs(int64(t))
	case int16:
		uval, negative = abs(int64(t))
	case int32:
		uval, negative = abs(int64(t))
	case int64:
		uval, negative = abs(t)
	case int:
		uval, negative = abs(int64(t))
	default:
		p.write(errWrongArgType)
		return
	}

	// Digits are produced least significant first.
	for {
		remainder := uval % base
		if remainder < 10 {
			digits[count] = byte(remainder) + '0'
		} else {
			digits[count] = byte(remainder-10) + 'a'
		}
		count++

		uval /= base
		if uval == 0 {
			break
		}
	}

	if padLen >= maxBufSize {
		padLen = maxBufSize - 1
	}
	padCount := padLen - count
	if negative {
		padCount--
	}

	if base == 10 {
		p.repeat(' ', padCount)
		if negative {
			p.writeByte('-')
		}
	} else {
		if negative {
			p.writeByte('-')
		}
		p.repeat('0', padCount)
	}

	for count > 0 {
		count--
		p.writeByte(digits[count])
	}
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

// doWrite is a proxy that uses the runtime.noescape hack to hide p from the
// compiler's escape analysis. Without this hack the compiler flags p as
// escaping because w is an unknown io.Writer, which turns every Printf call
// into a heap allocation.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
