package capture

import "testing"

func TestSwayWindowProbe_AvailableDoesNotPanicWithoutSway(t *testing.T) {
	p := NewSwayWindowProbe()
	_ = p.Available()
}

func TestFindFocused_WalksNestedNodesAndFloats(t *testing.T) {
	tree := swayNode{
		Name: "root",
		Nodes: []swayNode{
			{Name: "workspace", Nodes: []swayNode{
				{Name: "terminal", AppID: "foot"},
				{Name: "browser", AppID: "firefox", Focused: true},
			}},
		},
	}

	found, ok := findFocused(tree)
	if !ok {
		t.Fatal("expected to find the focused node")
	}
	if found.AppID != "firefox" {
		t.Errorf("expected firefox, got %s", found.AppID)
	}
}

func TestFindFocused_NoFocusedNodeReturnsFalse(t *testing.T) {
	tree := swayNode{Name: "root", Nodes: []swayNode{{Name: "workspace"}}}

	_, ok := findFocused(tree)
	if ok {
		t.Fatal("expected no focused node to be found")
	}
}
