package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKernelError(t *testing.T) {
	err := &Error{
		Module:  "memmap",
		Message: "available memory regions are overlapping or non-sorted",
	}

	require.Equal(t, err.Message, err.Error())

	var asError error = err
	require.EqualError(t, asError, err.Message)
}
