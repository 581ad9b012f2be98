package common

import "testing"

func TestIsPlaceholder(t *testing.T) {
	cases := map[string]bool{
		"":                  true,
		"   ":               true,
		"YOUR_API_KEY_HERE": true,
		"your_api_key_here": true,
		"changeme":          true,
		"a1b2c3d4":          false,
	}
	for in, want := range cases {
		if got := IsPlaceholder(in); got != want {
			t.Errorf("IsPlaceholder(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" chicago, ,london,")
	if len(got) != 2 || got[0] != "chicago" || got[1] != "london" {
		t.Fatalf("unexpected split: %v", got)
	}
	if SplitList("") != nil {
		t.Fatalf("expected nil for empty input")
	}
}
