// Package bizlookup provides an in-process Go client for grounded business
// lookups: it asks a hosted generative model (Gemini by default, or any
// OpenAI-compatible endpoint) for businesses matching an industry and a
// location, and returns the narrative, the structured records extracted from
// the answer, and the web sources the model cited.
//
//	client, _ := bizlookup.New(ctx, bizlookup.WithGemini(os.Getenv("GEMINI_API_KEY")))
//	res, err := client.Lookup(ctx, "bakery", "Penang")
//	if err != nil {
//	    switch bizlookup.CategoryOf(err) {
//	    case bizlookup.CategoryQuotaExceeded:
//	        // wait and retry the same query
//	    }
//	}
//	for _, b := range res.Records {
//	    fmt.Println(b.Name, b.Phone)
//	}
package bizlookup
