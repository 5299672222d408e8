package ai

import (
	"context"
)

// Copywriter drafts storefront copy for catalog products.
// Implementations can be swapped (Gemini today) without touching callers.
type Copywriter interface {
	// DescribeProduct returns a description and tagline for the product in brief.
	DescribeProduct(ctx context.Context, brief ProductBrief) (*ProductCopy, error)
}
