// Package main provides a one-shot utility for operator grant key generation.
//
// It emits the asymmetric keypair used to sign and verify admin operator
// grants.
package main

import (
	"os"

	"github.com/gen-dot-art/legacy-contracts/internal/platform/config"
	"github.com/gen-dot-art/legacy-contracts/internal/tools/grantkey"
)

func main() {
	if err := grantkey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate operator grant key: %v", err)
	}
}
