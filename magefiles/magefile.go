//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified
var Default = Build

const (
	binary   = "servatio"
	mainPkg  = "./cmd/servatio"
	coverOut = "coverage.out"
)

// Build compiles the servatio binary into the working directory
func Build() error {
	fmt.Println("Building " + binary + "...")
	return sh.RunV("go", "build", "-trimpath", "-o", binary, mainPkg)
}

// Install installs servatio into GOBIN
func Install() error {
	fmt.Println("Installing " + binary + "...")
	return sh.RunV("go", "install", "-trimpath", mainPkg)
}

// Test runs the unit tests with the race detector and writes coverage
func Test() error {
	fmt.Println("Running unit tests...")
	return sh.RunV("go", "test", "-race", "-shuffle=on", "-coverprofile="+coverOut, "./...")
}

// Integration mirrors real temporary directories through the runner
func Integration() error {
	fmt.Println("Running integration tests...")
	return sh.RunV("go", "test", "-tags=integration", "-race", "-count=1", "./internal/runner/...")
}

// Lint runs golangci-lint
func Lint() error {
	fmt.Println("Linting...")
	return sh.RunV("golangci-lint", "run", "./...")
}

// Fmt formats the code
func Fmt() error {
	fmt.Println("Formatting code...")
	if err := sh.Run("gofmt", "-s", "-w", "."); err != nil {
		return err
	}
	return sh.Run("goimports", "-w", ".")
}

// Check formats, lints and runs every test suite
func Check() {
	mg.SerialDeps(Fmt, Lint, Test, Integration)
}

// Coverage renders the coverage report as HTML
func Coverage() error {
	mg.Deps(Test)
	fmt.Println("Generating coverage report...")
	return sh.Run("go", "tool", "cover", "-html="+coverOut, "-o", "coverage.html")
}

// Clean removes build artifacts
func Clean() error {
	fmt.Println("Cleaning...")
	for _, path := range []string{binary, coverOut, "coverage.html"} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
