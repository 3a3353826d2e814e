// Package tool provides web-search clients used to supplement retrieval.
//
// Two providers implement SearchClient: TavilySearch (the default, matching
// the rest of the pipeline's top-5 aggregation) and BraveSearch. Both join
// the top result snippets into one text block and report the source URLs.
// FetchPageText fills in missing snippets by downloading the page and
// extracting its visible text with goquery.
//
//	search, err := tool.NewTavilySearch("")
//	if err != nil {
//		return err
//	}
//	result, err := search.Search(ctx, "latest qdrant release", 5)
package tool
