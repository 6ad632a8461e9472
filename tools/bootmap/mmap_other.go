//go:build !unix

package main

import (
	"os"

	"github.com/pkg/errors"
)

func mapFile(path string) ([]byte, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	return data, func() {}, nil
}
