package miran

import (
	"context"

	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/fingerprint"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/page"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/query"
	healthuc "github.com/MrMohammed1/Miran-Search/internal/usecase/health"
)

// --- productUseCase mock ---

type mockProductUC struct {
	listFn       func(ctx context.Context, number int) (page.Page, error)
	searchFn     func(ctx context.Context, q query.Query) (page.Page, error)
	getFn        func(ctx context.Context, id int64) (product.Product, error)
	invalidateFn func(ctx context.Context, op fingerprint.Op) (int, error)
}

func (m *mockProductUC) List(ctx context.Context, number int) (page.Page, error) {
	return m.listFn(ctx, number)
}

func (m *mockProductUC) Search(ctx context.Context, q query.Query) (page.Page, error) {
	return m.searchFn(ctx, q)
}

func (m *mockProductUC) Get(ctx context.Context, id int64) (product.Product, error) {
	return m.getFn(ctx, id)
}

func (m *mockProductUC) Invalidate(ctx context.Context, op fingerprint.Op) (int, error) {
	return m.invalidateFn(ctx, op)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report {
	return m.report
}
