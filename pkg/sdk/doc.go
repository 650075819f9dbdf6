// Package miran embeds bilingual (Arabic/English) product search in a Go
// program: trigram similarity ranking merged with substring matches,
// fixed-size pages and an optional page cache in Valkey, Redis or memory.
//
//	client, _ := miran.New(ctx,
//	    miran.WithPostgres("postgres://localhost/miran"),
//	    miran.WithValkey("localhost:6379", ""),
//	)
//	defer client.Close()
//
//	page, _ := client.Search(ctx, "تفاح", miran.SearchOptions{Category: "fruits"})
//	for _, p := range page.Results {
//	    fmt.Println(p.Name, p.Rank)
//	}
//
// For tests and small catalogs the products can live in memory:
//
//	client, _ := miran.New(ctx, miran.WithProducts(products), miran.WithMemoryCache(1000))
package miran
