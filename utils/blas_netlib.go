//go:build netlib
// +build netlib

package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	netblas "gonum.org/v1/netlib/blas/netlib"
)

// Builds tagged "netlib" route gonum's blas64 calls, and with them the
// eigen-decomposition in the result extractor, through the C BLAS.
func init() {
	blas64.Use(netblas.Implementation{})
	fmt.Println("Using netlib to accelerate BLAS")
}
