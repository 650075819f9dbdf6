// Package seed generates bilingual sample catalogs: the five fixed
// categories and products with unique Arabic or English names.
package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/MrMohammed1/Miran-Search/internal/domain/product"
)

// maxAttempts bounds the random draws for one unique name before falling
// back to a numbered name.
const maxAttempts = 10

var categories = []product.Category{
	{Name: "Fruits", Slug: "fruits"},
	{Name: "Vegetables", Slug: "vegetables"},
	{Name: "Dairy", Slug: "dairy"},
	{Name: "Grains", Slug: "grains"},
	{Name: "Proteins", Slug: "proteins"},
}

// vocabulary holds the words one language builds names from.
type vocabulary struct {
	products   []string
	adjectives []string
	varieties  []string
	brands     []string
	phrases    []string
}

var arabic = vocabulary{
	products:   []string{"تفاحة", "موزة", "جبنة", "خبز", "دجاج", "برتقال", "طماطم", "حليب", "أرز", "لحم"},
	adjectives: []string{"طازج", "عضوي", "أحمر", "أخضر", "طبيعي", "مشوي", "ممتاز", "محلي"},
	varieties:  []string{"الوادي", "المزرعة", "الحصاد", "الذهبي", "الملكي", "البستان", "الصباح", "المختار", "الأصيل", "الريف"},
	brands:     []string{"المراعي", "ندى", "الصافي", "مزارع الوادي", "الحقول الخضراء", "الحصاد الذهبي", "نادك", "الربيع"},
	phrases: []string{
		"منتج عالي الجودة من أفضل المزارع المحلية",
		"مناسب للإفطار والوجبات الخفيفة",
		"غني بالعناصر الغذائية ومحضر بعناية",
		"يحفظ في مكان بارد وجاف",
		"خال من المواد الحافظة والألوان الصناعية",
	},
}

var english = vocabulary{
	products:   []string{"Apple", "Banana", "Cheese", "Bread", "Chicken", "Orange", "Tomato", "Milk", "Rice", "Meat"},
	adjectives: []string{"Fresh", "Organic", "Red", "Green", "Natural", "Grilled", "Premium", "Local"},
	varieties:  []string{"Valley", "Farm", "Harvest", "Classic", "Select", "Golden", "Royal", "Garden", "Sunrise", "Prime"},
	brands: []string{
		"Almarai", "Nada", "Al Safi", "Organic Valley", "Green Fields", "Golden Harvest", "Nature's Best", "Sunny Farms",
	},
	phrases: []string{
		"A high quality product sourced from trusted local farms",
		"Great for breakfast and light snacks",
		"Rich in nutrients and carefully prepared",
		"Store in a cool and dry place",
		"Free from preservatives and artificial colors",
	},
}

// Categories returns the fixed category set, without ids.
func Categories() []product.Category {
	out := make([]product.Category, len(categories))
	copy(out, categories)
	return out
}

// Generator draws sample products from a random source.
type Generator struct {
	rng  *rand.Rand
	used map[string]struct{}
}

// New creates a generator. A zero seed draws a random one.
func New(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		used: make(map[string]struct{}),
	}
}

// Reserve marks names as taken so generated names never collide with them.
func (g *Generator) Reserve(names ...string) {
	for _, n := range names {
		g.used[n] = struct{}{}
	}
}

// Products generates n products spread over cats. Names are unique among
// themselves and every reserved name. Ids are left zero.
func (g *Generator) Products(n int, cats []product.Category) ([]product.Product, error) {
	if len(cats) == 0 {
		return nil, fmt.Errorf("no categories to assign")
	}
	out := make([]product.Product, 0, n)
	for range n {
		v := english
		if g.rng.IntN(2) == 0 {
			v = arabic
		}
		out = append(out, product.Product{
			Name:        g.name(v),
			Brand:       g.pick(v.brands),
			Category:    cats[g.rng.IntN(len(cats))],
			Description: g.pick(v.phrases) + ".",
			Calories:    10 + g.rng.IntN(491),
			Protein:     g.macro(),
			Carbs:       g.macro(),
			Fats:        g.macro(),
		})
	}
	return out, nil
}

// Catalog generates a self-contained catalog with ids assigned in order,
// suitable as a seed file for the in-memory catalog.
func (g *Generator) Catalog(n int) ([]product.Product, error) {
	cats := Categories()
	for i := range cats {
		cats[i].ID = int64(i + 1)
	}
	ps, err := g.Products(n, cats)
	if err != nil {
		return nil, err
	}
	for i := range ps {
		ps[i].ID = int64(i + 1)
	}
	return ps, nil
}

// name draws "<adjective> <product> <variety>" until an unused one comes up.
func (g *Generator) name(v vocabulary) string {
	for range maxAttempts {
		n := strings.Join([]string{g.pick(v.adjectives), g.pick(v.products), g.pick(v.varieties)}, " ")
		if g.claim(n) {
			return n
		}
	}
	base := g.pick(v.adjectives) + " " + g.pick(v.products)
	for i := 2; ; i++ {
		if n := fmt.Sprintf("%s %d", base, i); g.claim(n) {
			return n
		}
	}
}

func (g *Generator) claim(name string) bool {
	if _, ok := g.used[name]; ok {
		return false
	}
	g.used[name] = struct{}{}
	return true
}

func (g *Generator) pick(words []string) string {
	return words[g.rng.IntN(len(words))]
}

// macro returns grams with one decimal place.
func (g *Generator) macro() float64 {
	return math.Round(g.rng.Float64()*300) / 10
}
