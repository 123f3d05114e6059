package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefault(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	forward := c.ByID("drive_forward")
	if forward == nil {
		t.Fatal("default catalog has no drive_forward action")
	}
	if !forward.IsAxis() {
		t.Error("drive_forward must be an axis action")
	}
	if forward.Down() != -1.0 || forward.Up() != 0.0 {
		t.Errorf("drive_forward Down/Up = %v/%v, want -1/0", forward.Down(), forward.Up())
	}

	slow := c.ByID("motor_slow_mode")
	if slow == nil {
		t.Fatal("default catalog has no motor_slow_mode action")
	}
	if slow.IsAxis() {
		t.Error("motor_slow_mode must be discrete")
	}
	if slow.Down() != 1.0 || slow.Up() != 0.0 {
		t.Errorf("default Down/Up = %v/%v, want 1/0", slow.Down(), slow.Up())
	}

	if c.ByID("no_such_action") != nil {
		t.Error("ByID(unknown) must return nil")
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
actions:
  - id: pan_left
    category: camera
    group: pan
    axis_group: pan
    axis_name: x
    down_value: -1.0
  - id: flash
    category: system
    needs: light
    commands:
      - type: light
        action: flash
`
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "actions.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.All()) != 2 {
		t.Fatalf("All() returned %d actions, want 2", len(c.All()))
	}
	flash := c.ByID("flash")
	if flash.Needs != "light" {
		t.Errorf("flash.Needs = %q, want light", flash.Needs)
	}
	if len(flash.Commands) != 1 || flash.Commands[0]["type"] != "light" {
		t.Errorf("flash.Commands = %v, want one light payload", flash.Commands)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			"duplicate id",
			"actions:\n  - id: a\n    category: x\n  - id: a\n    category: x\n",
		},
		{
			"missing id",
			"actions:\n  - category: x\n",
		},
		{
			"bad axis_name",
			"actions:\n  - id: a\n    category: x\n    group: g\n    axis_name: z\n",
		},
		{
			"axis_name without group",
			"actions:\n  - id: a\n    category: x\n    axis_name: x\n",
		},
		{
			"not yaml",
			"{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse([]byte(tt.content)); err == nil {
				t.Error("parse() succeeded, want error")
			}
		})
	}
}

func TestGroupMembership(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	drive := c.AxisGroupActions("drive")
	if len(drive) != 4 {
		t.Errorf("AxisGroupActions(drive) returned %d actions, want 4", len(drive))
	}
	for _, a := range drive {
		if a.Group != "drive" {
			t.Errorf("action %s in drive axis group dispatches to %q", a.ID, a.Group)
		}
	}

	camera := c.HatGroupActions("camera")
	if len(camera) != 2 {
		t.Errorf("HatGroupActions(camera) returned %d actions, want 2", len(camera))
	}

	if got := c.AxisGroupActions("nope"); got != nil {
		t.Errorf("AxisGroupActions(nope) = %v, want nil", got)
	}
}

func TestByCategory(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	byCat := c.ByCategory()
	if len(byCat["drive"]) != 5 {
		t.Errorf("drive category has %d actions, want 5", len(byCat["drive"]))
	}
	// Catalog order is preserved within a category.
	if byCat["drive"][0].ID != "drive_forward" {
		t.Errorf("first drive action = %s, want drive_forward", byCat["drive"][0].ID)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{Action{ID: "drive_forward"}, "Drive Forward"},
		{Action{ID: "x"}, "X"},
		{Action{ID: "lock_camera", Name: "Lock Camera"}, "Lock Camera"},
	}
	for _, tt := range tests {
		if got := tt.action.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%s) = %q, want %q", tt.action.ID, got, tt.want)
		}
	}
}
