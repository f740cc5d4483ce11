package classify_test

import (
	"fmt"

	"github.com/matzehuels/productlens/pkg/classify"
)

func ExampleClassify() {
	attrs, _ := classify.Classify([]string{"shop", "retail", "orders", "staging", "stg_orders"}, nil)
	fmt.Println(attrs.Name, attrs.Layer)

	short, _ := classify.Classify([]string{"shop", "dashboard"}, nil)
	fmt.Println(short.Valid)
	// Output:
	// retail.orders staging
	// false
}
