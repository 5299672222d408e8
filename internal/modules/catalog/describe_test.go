package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pepemlv/partysavingrental/internal/ai"
)

type briefRecorder struct {
	got ai.ProductBrief
}

func (b *briefRecorder) DescribeProduct(_ context.Context, brief ai.ProductBrief) (*ai.ProductCopy, error) {
	b.got = brief
	return &ai.ProductCopy{Description: "Seats a crowd.", Tagline: "Sit back"}, nil
}

func TestDescribeProduct(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	_, err := svc.CreateProduct(ctx, Product{Name: "Folding Chair", BasePrice: 2.5, Description: "white chair",
		Addon: &Addon{Name: "Chair cover", Price: 1.75}})
	require.NoError(t, err)

	w := &briefRecorder{}
	out, err := svc.DescribeProduct(ctx, "folding-chair", w)
	require.NoError(t, err)
	assert.Equal(t, "Sit back", out.Tagline)
	assert.Equal(t, "Folding Chair", w.got.Name)
	assert.Equal(t, "Chair cover", w.got.AddonName)
	assert.Equal(t, "white chair", w.got.Current)

	stored, err := svc.GetProduct(ctx, "folding-chair")
	require.NoError(t, err)
	assert.Equal(t, "white chair", stored.Description)

	_, err = svc.DescribeProduct(ctx, "missing", w)
	assert.ErrorIs(t, err, ErrNotFound)
}
