//go:build mage

// Package main provides build targets for tnfpkg using Mage.
//
// Usage:
//
//	mage build       Compile the tnfpkg binary to bin/
//	mage test:all          Run every test
//	mage test:unit         Run package tests only
//	mage test:short        Run package tests without the property-based suites
//	mage test:integration  Build, then run the binary end-to-end tests
//	mage test:cover        Run package tests with a coverage profile
//	mage lint        Run golangci-lint
//	mage clean       Remove build artifacts
//	mage install     Install tnfpkg to GOPATH/bin
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "tnfpkg"
	binaryDir  = "bin"
	cmdDir     = "./cmd/tnfpkg"
	versionVar = "github.com/opentnf/tnfpkg/internal/cli.Version"
)

// Build compiles the tnfpkg binary to bin/. The version comes from
// TNF_VERSION or the latest git tag.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	ldflags := ""
	if v := buildVersion(); v != "" {
		ldflags = "-X " + versionVar + "=" + v
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

func buildVersion() string {
	if v := os.Getenv("TNF_VERSION"); v != "" {
		return v
	}
	tag, err := sh.Output("git", "describe", "--tags", "--abbrev=0")
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(tag), "v")
}

// Clean removes build artifacts.
func Clean() error {
	for _, p := range []string{binaryDir, coverProfile} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}
