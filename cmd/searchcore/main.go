// Command searchcore runs the search engine core: crawl configured
// sites, build an inverted index, and serve ranked search results.
package main

func main() {
	Execute()
}
