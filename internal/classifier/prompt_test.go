package classifier

import (
	"strings"
	"testing"

	"prodclass/pkg/types"
)

func TestBuildPrompt(t *testing.T) {
	p := types.Product{Name: "iPhone 15 Pro Max 256GB", Description: "Apple smartphone, {titanium}"}
	got := BuildPrompt(p, []string{"iphone", "tv"})
	for _, want := range []string{
		"categories: iphone, tv",
		"Product: iPhone 15 Pro Max 256GB",
		"Description: Apple smartphone, {titanium}",
		`"confidence": 0.95`,
		`use "unknown" with confidence 0.0`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q:\n%s", want, got)
		}
	}
	if got != strings.TrimSpace(got) {
		t.Fatalf("prompt not trimmed")
	}
}

func TestBuildBatchPromptNumbersFromOne(t *testing.T) {
	products := []types.Product{
		{Name: "Samsung Galaxy S24", Description: "phone"},
		{Name: "LG OLED55", Description: "television"},
	}
	got := BuildBatchPrompt(products, []string{"samsung_phone", "tv"})
	i1 := strings.Index(got, "1. Product: Samsung Galaxy S24")
	i2 := strings.Index(got, "2. Product: LG OLED55")
	if i1 < 0 || i2 < 0 || i1 > i2 {
		t.Fatalf("products not numbered in order:\n%s", got)
	}
	if !strings.Contains(got, `"index": 1`) || !strings.Contains(got, "JSON array") {
		t.Fatalf("batch answer format missing:\n%s", got)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	p := types.Product{Name: "x", Description: "y"}
	if BuildPrompt(p, testCategories) != BuildPrompt(p, testCategories) {
		t.Fatalf("prompt differs between calls")
	}
}
