package catalog

import (
	"context"

	"github.com/pepemlv/partysavingrental/internal/ai"
)

// DescribeProduct drafts storefront copy for a stored product. The draft is returned
// to the admin and not saved.
func (s *Service) DescribeProduct(ctx context.Context, id string, writer ai.Copywriter) (*ai.ProductCopy, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	brief := ai.ProductBrief{
		Name:      p.Name,
		Category:  p.Category,
		BasePrice: p.BasePrice,
		Current:   p.Description,
	}
	if p.Addon != nil {
		brief.AddonName = p.Addon.Name
	}
	return writer.DescribeProduct(ctx, brief)
}
