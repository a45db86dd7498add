package main

import (
	"errors"
	"testing"

	"github.com/lao-tseu-is-alive/go-flocking/pkg/simulation"
)

func TestApp_Run(t *testing.T) {
	args := []string{"flockbench", "--ticks", "5", "--agents", "30", "--neighborhood", "rtree", "--seed", "3", "--report", "2"}
	if err := makeapp().Run(args); err != nil {
		t.Fatalf("Run(%v) error: %v", args, err)
	}
}

func TestApp_RunWithConfig(t *testing.T) {
	args := []string{"flockbench", "--config", "../../pkg/simulation/testdata/config.toml", "--ticks", "3", "--agents", "10"}
	if err := makeapp().Run(args); err != nil {
		t.Fatalf("Run(%v) error: %v", args, err)
	}
}

func TestApp_RejectsUnknownNeighborhood(t *testing.T) {
	args := []string{"flockbench", "--ticks", "1", "--neighborhood", "octree"}
	err := makeapp().Run(args)
	if !errors.Is(err, simulation.ErrUnknownNeighborhood) {
		t.Errorf("Run(%v) error = %v; want ErrUnknownNeighborhood", args, err)
	}
}
