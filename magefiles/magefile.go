//go:build mage

// Package main provides build targets for the entityprop project using Mage.
//
// Usage:
//
//	mage build          Compile the entityprop binary to bin/
//	mage test           Run all tests, including the PostgreSQL container test
//	mage testUnit       Run tests in -short mode (no Docker needed)
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install entityprop to GOPATH/bin
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "entityprop"
	binaryDir  = "bin"
	cmdDir     = "./cmd/entityprop"
	versionVar = "github.com/mesh-intelligence/entityprop/internal/cli.Version"
)

// ldflags stamps the version from $VERSION, or leaves the default.
func ldflags() string {
	v := os.Getenv("VERSION")
	if v == "" {
		return ""
	}
	return fmt.Sprintf("-X %s=%s", versionVar, strings.TrimPrefix(v, "v"))
}

// Build compiles the entityprop binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests. The PostgreSQL test skips itself without Docker.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestUnit runs tests in -short mode, skipping container tests.
func TestUnit() error {
	return sh.RunV("go", "test", "-short", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
