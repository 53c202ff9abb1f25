//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs all unit tests.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "./..."), withStream())
	return err
}

// Runs the tests with the race detector, for the parallel weight and deform passes.
func (Test) Race() error {
	mg.Deps(Build.Tidy)
	_, err := executeCmd("go", withArgs("test", "-race", "./skinning/...", "./weightio/..."), withStream())
	return err
}

// Computes weights for a sample rig. Usage: mage test:sample skeleton.json mesh.obj out.npz
func (Test) Sample(skeleton, mesh, output string) error {
	mg.Deps(Build.Cli)
	_, err := executeCmd("bin/quadrig", withArgs("-v", skeleton, mesh, output), withStream())
	return err
}
