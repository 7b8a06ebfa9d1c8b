package embedding

import (
	"math"
	"testing"
)

func TestNew_RejectsNonPositiveDim(t *testing.T) {
	for _, dim := range []int{0, -1} {
		if _, err := New(dim); err == nil {
			t.Errorf("New(%d) expected error", dim)
		}
	}
}

func TestEmbed_Deterministic(t *testing.T) {
	gen, err := New(128)
	if err != nil {
		t.Fatal(err)
	}

	a := gen.Embed("farmer kisan agriculture subsidy")
	b := gen.Embed("farmer kisan agriculture subsidy")

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("component %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestEmbed_ShapeAndNorm(t *testing.T) {
	gen, _ := New(256)

	tests := []struct {
		name     string
		text     string
		wantZero bool
	}{
		{"plain text", "health insurance for rural families", false},
		{"single long token", "agriculture", false},
		{"empty", "", true},
		{"whitespace only", "   \t\n  ", true},
		{"all short tokens", "a b c d e", true},
		{"punctuation only", "... !!! ???", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec := gen.Embed(tt.text)
			if len(vec) != 256 {
				t.Fatalf("len = %d, want 256", len(vec))
			}

			var sum float64
			for _, v := range vec {
				sum += float64(v) * float64(v)
			}
			norm := math.Sqrt(sum)

			if tt.wantZero {
				if norm != 0 {
					t.Errorf("norm = %v, want 0", norm)
				}
				return
			}
			if math.Abs(norm-1.0) > 1e-4 {
				t.Errorf("norm = %v, want ~1.0", norm)
			}
		})
	}
}

func TestEmbed_DifferentTextsDiffer(t *testing.T) {
	gen, _ := New(768)

	a := gen.Embed("farmer pension scheme")
	b := gen.Embed("hospital insurance cover")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct texts produced identical vectors")
	}
}

func TestEmbed_BigramsContribute(t *testing.T) {
	gen, _ := New(768)

	// Same unigrams, different adjacency: bigrams must separate them.
	a := gen.Embed("kisan credit card")
	b := gen.Embed("card kisan credit")

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("token order had no effect; bigrams not contributing")
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"lowercase and split", "PM-Kisan Yojana", []string{"pm-kisan", "yojana"}},
		{"edge punctuation stripped", "scheme, (health)! 'cover'", []string{"scheme", "health", "cover"}},
		{"short tokens dropped", "a of I go ox", []string{"of", "go", "ox"}},
		{"empty", "", nil},
		{"interior punctuation kept", "below-poverty line", []string{"below-poverty", "line"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
