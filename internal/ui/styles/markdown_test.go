package styles

import "testing"

func TestGetMarkdownRendererNonNil(t *testing.T) {
	r := GetMarkdownRenderer(80)
	if r == nil {
		t.Fatal("GetMarkdownRenderer should return a usable renderer")
	}
	out, err := r.Render("# hello\n\nworld")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out == "" {
		t.Error("Render of non-empty markdown should not produce an empty string")
	}
}

func TestGetMarkdownStyleSetsHeadingColor(t *testing.T) {
	style := GetMarkdownStyle()
	if style.Heading.StylePrimitive.Color == nil {
		t.Fatal("Heading color should be set")
	}
	if *style.Heading.StylePrimitive.Color == "" {
		t.Error("Heading color should be a non-empty hex string")
	}
}

func TestGetMarkdownStyleListIndent(t *testing.T) {
	style := GetMarkdownStyle()
	if style.List.LevelIndent != 2 {
		t.Errorf("List.LevelIndent = %d, want 2", style.List.LevelIndent)
	}
}
