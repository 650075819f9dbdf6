package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MrMohammed1/Miran-Search/internal/db/postgres"
	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/match"
	"github.com/MrMohammed1/Miran-Search/internal/domain/search/similarity"
)

// Repo is the Postgres catalog. Similarity comes from pg_trgm's similarity()
// over the normalized columns, served by GIN trigram indexes.
type Repo struct {
	db            *gorm.DB
	maxCandidates int
}

// NewRepo creates a Postgres catalog repository.
func NewRepo(db *gorm.DB, maxCandidates int) *Repo {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &Repo{db: db, maxCandidates: maxCandidates}
}

// SubstringSearch returns ids of all products whose normalized fields contain
// text, in id order. The set is never truncated.
func (r *Repo) SubstringSearch(
	ctx context.Context, fields []product.Field, text string, f product.Filter,
) ([]int64, error) {
	cols, err := columnsFor(fields)
	if err != nil {
		return nil, err
	}

	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	pattern := containsPattern(text)
	for i, col := range cols {
		conds[i] = col + ` LIKE ? ESCAPE '\'`
		args[i] = pattern
	}

	var ids []int64
	err = r.filtered(r.db.WithContext(ctx).Model(&postgres.ProductModel{}), f).
		Where("("+strings.Join(conds, " OR ")+")", args...).
		Order("products.id").
		Pluck("products.id", &ids).Error
	if err != nil {
		return nil, postgres.Classify("substring search", err)
	}
	return ids, nil
}

type scoredRow struct {
	ID    int64
	Score float64
}

// SimilaritySearch returns products whose best field similarity to text is
// strictly above threshold, highest first, at most maxCandidates of them.
func (r *Repo) SimilaritySearch(
	ctx context.Context, fields []product.Field, text string, threshold float64, f product.Filter,
) ([]match.Match, error) {
	cols, err := columnsFor(fields)
	if err != nil {
		return nil, err
	}

	sims := make([]string, len(cols))
	ops := make([]string, len(cols))
	simArgs := make([]any, len(cols))
	for i, col := range cols {
		sims[i] = "similarity(" + col + ", ?)"
		ops[i] = col + " % ?"
		simArgs[i] = text
	}
	scoreExpr := "GREATEST(" + strings.Join(sims, ", ") + ")"

	var rows []scoredRow
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The % operator uses this threshold and lets the GIN index prune.
		setCfg := "SELECT set_config('pg_trgm.similarity_threshold', ?, true)"
		if err := tx.Exec(setCfg, strconv.FormatFloat(threshold, 'f', -1, 64)).Error; err != nil {
			return err
		}
		whereArgs := append(append([]any{}, simArgs...), threshold)
		return r.filtered(tx.Model(&postgres.ProductModel{}), f).
			Select("products.id AS id, "+scoreExpr+" AS score", simArgs...).
			Where("("+strings.Join(ops, " OR ")+")", simArgs...).
			Where(scoreExpr+" > ?", whereArgs...).
			Order("score DESC, products.id ASC").
			Limit(r.maxCandidates).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, postgres.Classify("similarity search", err)
	}

	out := make([]match.Match, len(rows))
	for i, row := range rows {
		out[i] = match.New(row.ID, row.Score, match.Trigram)
	}
	return out, nil
}

func (r *Repo) filtered(q *gorm.DB, f product.Filter) *gorm.DB {
	if f.Category != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where(`categories.name_norm LIKE ? ESCAPE '\'`, containsPattern(f.Category))
	}
	if f.CaloriesMin != nil {
		q = q.Where("products.calories >= ?", *f.CaloriesMin)
	}
	if f.CaloriesMax != nil {
		q = q.Where("products.calories <= ?", *f.CaloriesMax)
	}
	return q
}

// Count returns the number of products.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&postgres.ProductModel{}).Count(&n).Error; err != nil {
		return 0, postgres.Classify("count products", err)
	}
	return int(n), nil
}

// ListPage returns products in id order.
func (r *Repo) ListPage(ctx context.Context, offset, limit int) ([]product.Product, error) {
	var rows []postgres.ProductModel
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("id").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, postgres.Classify("list products", err)
	}
	return toDomain(rows), nil
}

// FetchByIDs returns products in the order of ids. Unknown ids are skipped.
func (r *Repo) FetchByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}
	var rows []postgres.ProductModel
	if err := r.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, postgres.Classify("fetch products", err)
	}
	return orderByIDs(ids, toDomain(rows)), nil
}

// Get returns one product or domain.ErrNotFound.
func (r *Repo) Get(ctx context.Context, id int64) (product.Product, error) {
	var row postgres.ProductModel
	if err := r.db.WithContext(ctx).Preload("Category").First(&row, id).Error; err != nil {
		return product.Product{}, postgres.Classify(fmt.Sprintf("get product %d", id), err)
	}
	return row.ToDomain(), nil
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return postgres.Ping(ctx, r.db)
}

// UpsertCategories creates categories by slug, refreshing their names, and
// returns them with ids.
func (r *Repo) UpsertCategories(ctx context.Context, cats []product.Category) ([]product.Category, error) {
	rows := make([]postgres.CategoryModel, len(cats))
	for i, c := range cats {
		rows[i] = postgres.CategoryModel{Name: c.Name, NameNorm: similarity.Normalize(c.Name), Slug: c.Slug}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "name_norm", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return nil, postgres.Classify("upsert categories", err)
	}

	out := make([]product.Category, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return out, nil
}

// InsertProducts bulk-inserts products with their normalized search columns.
func (r *Repo) InsertProducts(ctx context.Context, ps []product.Product, batchSize int) error {
	if len(ps) == 0 {
		return nil
	}
	rows := make([]postgres.ProductModel, len(ps))
	for i, p := range ps {
		rows[i] = postgres.ProductModel{
			Name:        p.Name,
			NameNorm:    similarity.Normalize(p.Name),
			Brand:       p.Brand,
			BrandNorm:   similarity.Normalize(p.Brand),
			CategoryID:  p.Category.ID,
			Description: p.Description,
			Calories:    p.Calories,
			Protein:     p.Protein,
			Carbs:       p.Carbs,
			Fats:        p.Fats,
		}
	}
	if err := r.db.WithContext(ctx).Omit("Category").CreateInBatches(&rows, batchSize).Error; err != nil {
		return postgres.Classify("insert products", err)
	}
	return nil
}

// ProductNames returns every stored product name.
func (r *Repo) ProductNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&postgres.ProductModel{}).Pluck("name", &names).Error; err != nil {
		return nil, postgres.Classify("list product names", err)
	}
	return names, nil
}

// DeleteProducts removes all products.
func (r *Repo) DeleteProducts(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec("TRUNCATE TABLE products RESTART IDENTITY").Error; err != nil {
		return postgres.Classify("delete products", err)
	}
	return nil
}

func toDomain(rows []postgres.ProductModel) []product.Product {
	out := make([]product.Product, len(rows))
	for i, row := range rows {
		out[i] = row.ToDomain()
	}
	return out
}
