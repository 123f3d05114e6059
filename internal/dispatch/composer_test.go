package dispatch

import (
	"reflect"
	"testing"

	"github.com/imarchand/pirobot-remote/internal/binding"
	"github.com/imarchand/pirobot-remote/internal/input"
)

type dispatched struct {
	group string
	x, y  float64
}

func recordingComposer() (*Composer, *[]dispatched) {
	var calls []dispatched
	c := NewComposer(func(group string, x, y float64) {
		calls = append(calls, dispatched{group: group, x: x, y: y})
	})
	return c, &calls
}

const pad input.DeviceID = "0123456789abcdef"

func TestSetSubComposesIndependentAxes(t *testing.T) {
	c, calls := recordingComposer()

	c.SetSub(pad, "drive", binding.SubY, -1)
	c.SetSub(pad, "drive", binding.SubX, 0.5)
	c.SetSub(pad, "drive", binding.SubY, 0)

	want := []dispatched{
		{"drive", 0, -1},
		{"drive", 0.5, -1},
		{"drive", 0.5, 0},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("dispatches = %v, want %v", *calls, want)
	}
}

func TestSetSubClamps(t *testing.T) {
	c, calls := recordingComposer()

	c.SetSub(pad, "drive", binding.SubX, 1.7)
	c.SetSub(pad, "drive", binding.SubX, -2.3)

	want := []dispatched{
		{"drive", 1, 0},
		{"drive", -1, 0},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("dispatches = %v, want %v", *calls, want)
	}
}

func TestGroupsAreIndependent(t *testing.T) {
	c, calls := recordingComposer()

	c.SetSub(pad, "drive", binding.SubX, 1)
	c.SetSub(pad, "camera", binding.SubY, -1)

	want := []dispatched{
		{"drive", 1, 0},
		{"camera", 0, -1},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("dispatches = %v, want %v", *calls, want)
	}
}

func TestSetHatReplacesPositionAndInvertsY(t *testing.T) {
	c, calls := recordingComposer()

	// Hat up arrives as y=+1 and must dispatch as y=-1.
	c.SetHat(pad, "drive", 0, 1)
	c.SetHat(pad, "drive", -1, 0)
	c.SetHat(pad, "drive", 0, 0)

	want := []dispatched{
		{"drive", 0, -1},
		{"drive", -1, 0},
		{"drive", 0, 0},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("dispatches = %v, want %v", *calls, want)
	}
}

func TestDropDeviceDiscardsLiveState(t *testing.T) {
	c, calls := recordingComposer()
	other := input.DeviceID("fedcba9876543210")

	c.SetSub(pad, "drive", binding.SubY, -1)
	c.SetSub(other, "drive", binding.SubY, 1)
	c.DropDevice(pad)

	// The dropped device restarts from rest; the other keeps its state.
	c.SetSub(pad, "drive", binding.SubX, 0.25)
	c.SetSub(other, "drive", binding.SubX, 0.25)

	want := []dispatched{
		{"drive", 0, -1},
		{"drive", 0, 1},
		{"drive", 0.25, 0},
		{"drive", 0.25, 1},
	}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("dispatches = %v, want %v", *calls, want)
	}
}
