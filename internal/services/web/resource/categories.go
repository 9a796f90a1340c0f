package resource

import (
	"context"

	"github.com/louisbranch/giving.space/internal/services/web/cache"
	"github.com/louisbranch/giving.space/internal/services/web/viewmodel"
)

// CategoriesResult is the category list handle. Categories is never nil.
type CategoriesResult struct {
	Categories []viewmodel.Category
	Err        error
	IsLoading  bool
}

// UseCategories reads the donation categories.
func (h *Hooks) UseCategories(ctx context.Context) CategoriesResult {
	snap := h.load(ctx, h.CategoriesKey(), h.fetchCategories, h.categoriesPolicy)

	raw, _ := snap.Data.(viewmodel.RawCategories)
	return CategoriesResult{
		Categories: viewmodel.TransformCategories(raw),
		Err:        snap.Err,
		IsLoading:  snap.IsLoading,
	}
}

func (h *Hooks) fetchCategories(ctx context.Context, _ cache.Key) (any, error) {
	var raw viewmodel.RawCategories
	if err := h.api.Get(ctx, "/categories", "", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
