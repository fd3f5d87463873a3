package queuerunner

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestIndexOf(t *testing.T) {
	actions := []RenderPassAction{ActionDontCare, ActionClear, ActionKeep}
	for _, color := range actions {
		for _, depth := range actions {
			got := IndexOf(color, depth)
			want := int(depth)*3 + int(color)
			if got != want {
				t.Errorf("IndexOf(%s, %s) = %d, want %d", color, depth, got, want)
			}
		}
	}
}

func TestIndexOfRange(t *testing.T) {
	seen := map[int]bool{}
	actions := []RenderPassAction{ActionDontCare, ActionClear, ActionKeep}
	for _, color := range actions {
		for _, depth := range actions {
			idx := IndexOf(color, depth)
			if idx < 0 || idx > 8 {
				t.Fatalf("IndexOf(%s, %s) = %d out of [0,8]", color, depth, idx)
			}
			if seen[idx] {
				t.Fatalf("IndexOf(%s, %s) collided with a previous pair at %d", color, depth, idx)
			}
			seen[idx] = true
		}
	}
	if len(seen) != 9 {
		t.Fatalf("expected 9 distinct cache slots, got %d", len(seen))
	}
}

func TestLoadOpFor(t *testing.T) {
	cases := []struct {
		action RenderPassAction
		want   vk.AttachmentLoadOp
	}{
		{ActionClear, vk.AttachmentLoadOpClear},
		{ActionKeep, vk.AttachmentLoadOpLoad},
		{ActionDontCare, vk.AttachmentLoadOpDontCare},
	}
	for _, c := range cases {
		if got := loadOpFor(c.action); got != c.want {
			t.Errorf("loadOpFor(%s) = %v, want %v", c.action, got, c.want)
		}
	}
}

func TestLoadOpForUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown render-pass action")
		}
	}()
	loadOpFor(RenderPassAction(99))
}
