//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary  = "upgrade"
	pkgPath = "./cmd/upgrade"
)

// Default target - build the binary
var Default = Build

// Build builds the upgrade binary with version metadata.
func Build() error {
	return sh.RunV("go", "build", "-ldflags", ldflags(), "-o", binary, pkgPath)
}

// Install installs the binary into GOBIN.
func Install() error {
	return sh.RunV("go", "install", "-ldflags", ldflags(), pkgPath)
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs the unit tests with the race detector.
func Race() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// QA runs formatting, vet and tests.
func QA() error {
	mg.SerialDeps(Fmt, Vet, Test)
	if _, err := exec.LookPath("staticcheck"); err != nil {
		fmt.Fprintln(os.Stderr, "staticcheck not found (install: go install honnef.co/go/tools/cmd/staticcheck@latest)")
		return nil
	}
	return sh.RunV("staticcheck", "./...")
}

// Fmt fails when gofmt would change a file.
func Fmt() error {
	out, err := sh.Output("gofmt", "-l", "cmd", "internal")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm(binary)
}

func ldflags() string {
	const pkg = "upgrade/internal/version"
	flags := []string{"-s", "-w"}
	if commit, err := sh.Output("git", "rev-parse", "HEAD"); err == nil {
		flags = append(flags, fmt.Sprintf("-X %s.GitCommit=%s", pkg, commit))
	}
	if date, err := sh.Output("date", "-u", "+%Y-%m-%dT%H:%M:%SZ"); err == nil {
		flags = append(flags, fmt.Sprintf("-X %s.BuildDate=%s", pkg, date))
	}
	return strings.Join(flags, " ")
}
