package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/georgia-utilities/alertbot/internal/lib/areatree"
	"github.com/georgia-utilities/alertbot/internal/lib/geo"
	"github.com/georgia-utilities/alertbot/internal/lib/mapimage"
	"github.com/georgia-utilities/alertbot/internal/lib/streets"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "match":
		handleMatch()
	case "intersection":
		handleIntersection()
	case "resolve":
		handleResolve()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func loadCorpus(dir string) *streets.Corpus {
	corpus := streets.NewCorpus(streets.DefaultScoreWeights())
	loaded, err := corpus.LoadDir(dir)
	if err != nil {
		log.Fatalf("Error loading street corpus from %s: %v", dir, err)
	}
	if corpus.Len() == 0 {
		log.Fatalf("No streets found in %s (expected <city>.geojson files)", dir)
	}
	for city, n := range loaded {
		fmt.Printf("Loaded %d streets for %s\n", n, city)
	}
	fmt.Println()
	return corpus
}

func splitCities(value string) []string {
	var cities []string
	for _, city := range strings.Split(value, ",") {
		if city = strings.TrimSpace(city); city != "" {
			cities = append(cities, city)
		}
	}
	return cities
}

func handleMatch() {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	query := fs.String("query", "", "Free-text street name (Georgian or Latin)")
	corpusDir := fs.String("corpus", "data/streets", "Directory with <city>.geojson files")
	cities := fs.String("cities", "", "Comma-separated cities to search (default: all)")
	all := fs.Bool("all", false, "List every candidate instead of the best match")
	limit := fs.Int("limit", 10, "Maximum candidates printed with --all")

	fs.Parse(os.Args[2:])

	if *query == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-street-matcher match --query 'ჭავჭავაძის ქ.' --cities batumi")
		fmt.Println("  test-street-matcher match --query 'chavchavadze' --all --limit 5")
		os.Exit(1)
	}

	corpus := loadCorpus(*corpusDir)
	resolver := streets.NewResolver(corpus, streets.DefaultResolverOptions())

	fmt.Printf("Query tokens: %s\n\n", strings.Join(streets.QueryTokens(*query), " "))

	var matches []streets.Match
	if *all {
		matches = corpus.AllMatches(*query, splitCities(*cities)...)
		if len(matches) > *limit {
			matches = matches[:*limit]
		}
	} else {
		matches = corpus.GetBestMatches(*query, splitCities(*cities)...)
	}

	if len(matches) == 0 {
		fmt.Println("❌ No candidates")
		return
	}

	threshold := resolver.Options().AcceptanceThreshold
	for i, m := range matches {
		rating := resolver.Rating(m.Result)
		status := "❌"
		if rating >= threshold {
			status = "✅"
		}
		fmt.Printf("%d. %s %s (%s) rating %.3f\n", i+1, status, m.Street.Name, m.City, rating)
		fmt.Printf("   %s\n", m.Result)
	}
}

func handleIntersection() {
	fs := flag.NewFlagSet("intersection", flag.ExitOnError)
	query := fs.String("query", "", "Area fragment that may name two crossing streets")

	fs.Parse(os.Args[2:])

	if *query == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-street-matcher intersection --query 'გორგილაძის და ბაგრატიონის კვეთა'")
		os.Exit(1)
	}

	ok, sides := streets.HasIntersection(*query)
	if !ok {
		fmt.Println("Not an intersection")
		return
	}
	fmt.Println("Intersection of:")
	fmt.Printf("  1. %s\n", sides[0])
	fmt.Printf("  2. %s\n", sides[1])
}

func handleResolve() {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	area := fs.String("area", "", "Raw disconnectionArea string from the feed")
	city := fs.String("city", "ბათუმი", "Georgian name of the first-level city node")
	corpusDir := fs.String("corpus", "data/streets", "Directory with <city>.geojson files")
	cities := fs.String("cities", "", "Comma-separated corpus cities to search (default: --city)")
	kmlOut := fs.String("kml", "", "Write the matched geometry to this KML file")
	verbose := fs.Bool("verbose", false, "Print the parsed area tree and the static map URL")

	fs.Parse(os.Args[2:])

	if *area == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-street-matcher resolve --area 'ბათუმი/ჭავჭავაძის ქ., ბათუმი/გორგილაძის ქ.'")
		fmt.Println("  test-street-matcher resolve --area '...' --kml alert.kml --verbose")
		os.Exit(1)
	}

	searchCities := splitCities(*cities)
	if len(searchCities) == 0 {
		searchCities = []string{*city}
	}

	corpus := loadCorpus(*corpusDir)
	resolver := streets.NewResolver(corpus, streets.DefaultResolverOptions())

	tree := areatree.Parse(*area)
	if *verbose {
		fmt.Println("Area tree:")
		fmt.Println(tree.Format())
	}

	res := resolver.Resolve(tree, *city, searchCities)

	fmt.Printf("Areas: %d, accepted matches: %d, geometries: %d\n\n", len(res.Areas), len(res.Results), len(res.Geometries))
	for _, r := range res.Results {
		fmt.Printf("✅ %s -> %s (%.3f)\n", r.Input, r.Match, r.Rating)
	}
	for _, name := range res.Unmatched() {
		fmt.Printf("❌ %s\n", name)
	}

	if *verbose {
		output, _ := json.MarshalIndent(res.Results, "", "  ")
		fmt.Printf("\nResults JSON:\n%s\n", output)

		opts := mapimage.DefaultOptions()
		builder := mapimage.NewStaticMapBuilder(opts, geo.NewGeoUtils())
		paths := mapimage.PathsFor(res.Geometries, mapimage.DefaultGradient(), opts.PathWeight)
		fmt.Printf("\nStatic map URL:\n%s\n", builder.Build(paths))
	}

	if *kmlOut != "" {
		f, err := os.Create(*kmlOut)
		if err != nil {
			log.Fatalf("Error creating %s: %v", *kmlOut, err)
		}
		defer f.Close()

		exporter := mapimage.NewKMLExporter(mapimage.DefaultGradient(), float64(mapimage.DefaultOptions().PathWeight))
		if err := exporter.WriteKML(f, *area, res.Geometries); err != nil {
			log.Fatalf("Error writing KML: %v", err)
		}
		fmt.Printf("\nKML written to %s\n", *kmlOut)
	}
}

func printUsage() {
	fmt.Println("Street Matcher Testing Tool")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  test-street-matcher <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  match         Score a street name against the corpus")
	fmt.Println("  intersection  Split an intersection description into its streets")
	fmt.Println("  resolve       Run the area tree to geometry pipeline")
	fmt.Println("  help          Show this help message")
	fmt.Println("")
	fmt.Println("Use 'test-street-matcher <command>' without options to see examples.")
}
