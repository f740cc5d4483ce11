package classify

import (
	"testing"

	"github.com/matzehuels/productlens/pkg/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		fqn      []string
		excluded []string
		want     Attributes
	}{
		{
			name: "WithLayer",
			fqn:  []string{"proj", "retail", "orders", "staging", "stg_orders"},
			want: Attributes{Valid: true, Category: "retail", Name: "retail.orders", Layer: "staging"},
		},
		{
			name: "DeepPathUsesFourthSegment",
			fqn:  []string{"proj", "retail", "orders", "marts", "daily", "fct_orders"},
			want: Attributes{Valid: true, Category: "retail", Name: "retail.orders", Layer: "marts"},
		},
		{
			name: "FourSegmentsIsRoot",
			fqn:  []string{"proj", "retail", "orders", "orders"},
			want: Attributes{Valid: true, Category: "retail", Name: "retail.orders", Layer: RootLayer},
		},
		{
			name: "TooShort",
			fqn:  []string{"proj", "exposure_x"},
			want: Unattributed,
		},
		{
			name: "ThreeSegments",
			fqn:  []string{"proj", "raw", "orders"},
			want: Unattributed,
		},
		{
			name:     "ExcludedCategory",
			fqn:      []string{"proj", "utils", "dates", "macros", "calendar"},
			excluded: []string{"utils"},
			want:     Unattributed,
		},
		{
			name:     "ExclusionOnlyMatchesCategory",
			fqn:      []string{"proj", "retail", "utils", "staging", "x"},
			excluded: []string{"utils"},
			want:     Attributes{Valid: true, Category: "retail", Name: "retail.utils", Layer: "staging"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.fqn, tt.excluded)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClassifyEmpty(t *testing.T) {
	for _, fqn := range [][]string{nil, {}} {
		_, err := Classify(fqn, nil)
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Classify(%v) error = %v, want INVALID_INPUT", fqn, err)
		}
	}
}

func TestClassifierAllowList(t *testing.T) {
	fqn := []string{"proj", "finance", "ledger", "marts", "fct_ledger"}

	lenient := Classifier{Allowed: []string{"retail"}}
	got, err := lenient.Classify(fqn)
	if err != nil || got.Valid {
		t.Errorf("lenient Classify() = %+v, %v; want unattributed, nil", got, err)
	}

	strict := Classifier{Allowed: []string{"retail"}, Strict: true}
	_, err = strict.Classify(fqn)
	if !errors.Is(err, errors.ErrCodeUnclassifiable) {
		t.Errorf("strict Classify() error = %v, want UNCLASSIFIABLE_IDENTIFIER", err)
	}

	allowed := Classifier{Allowed: []string{"finance"}, Strict: true}
	got, err = allowed.Classify(fqn)
	if err != nil || got.Name != "finance.ledger" {
		t.Errorf("allowed Classify() = %+v, %v", got, err)
	}
}

func TestClassifierStrictIgnoresShortPaths(t *testing.T) {
	c := Classifier{Allowed: []string{"retail"}, Strict: true}
	got, err := c.Classify([]string{"proj", "raw", "orders"})
	if err != nil || got.Valid {
		t.Errorf("Classify(short) = %+v, %v; want unattributed without error", got, err)
	}
}

func TestDisplayName(t *testing.T) {
	a := Attributes{Valid: true, Category: "retail", Name: "retail.orders", Layer: "staging"}
	if got := a.DisplayName("stg_orders"); got != "retail.orders.stg_orders" {
		t.Errorf("DisplayName() = %q", got)
	}
	if got := Unattributed.DisplayName("exposure_x"); got != "exposure_x" {
		t.Errorf("unattributed DisplayName() = %q", got)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := map[string]string{
		"retail.orders": "retail",
		"a.b.c":         "a",
		"plain":         "plain",
		"":              "",
	}
	for in, want := range tests {
		if got := CategoryOf(in); got != want {
			t.Errorf("CategoryOf(%q) = %q, want %q", in, got, want)
		}
	}
}
