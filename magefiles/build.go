//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Test runs the full unit test suite with the race detector enabled.
func (Build) Test() error {
	fmt.Println("Running tests...")
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Vet runs go vet across the module.
func (Build) Vet() error {
	fmt.Println("Vetting...")
	_, err := executeCmd("go", withArgs("vet", "./..."), withStream())
	return err
}

// All runs go build across the module as a compile smoke test.
func (Build) All() error {
	fmt.Println("Building...")
	_, err := executeCmd("go", withArgs("build", "./..."), withStream())
	return err
}
