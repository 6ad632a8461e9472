package kmain

import (
	"testing"

	"github.com/ababo/arwen/kernel/cpu"
	"github.com/stretchr/testify/require"
)

func TestSerialPortWrite(t *testing.T) {
	defer func() {
		portWriteByteFn = cpu.PortWriteByte
	}()

	var (
		ports []uint16
		out   []byte
	)
	portWriteByteFn = func(port uint16, val uint8) {
		ports = append(ports, port)
		out = append(out, val)
	}

	n, err := serialPort(com1).Write([]byte("ok\n"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, "ok\r\n", string(out))
	require.Equal(t, []uint16{com1, com1, com1, com1}, ports)
}
