package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/georgia-utilities/alertbot/internal/clients/energopro"
	"github.com/georgia-utilities/alertbot/internal/clients/socar"
	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

func main() {
	var (
		feedType = flag.String("feed", "all", "Feed type: all, power, gas")
		city     = flag.String("city", "ბათუმი", "Georgian city name to search")
		offline  = flag.String("offline", "", "Read the power feed response from this JSON file instead of the live API")
		verbose  = flag.Bool("verbose", false, "Print the formatted posts")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fmt.Printf("Outage Feed Test Tool\n\n")
		fmt.Printf("Fetches the energo-pro and Socar feeds for one city.\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s\n", os.Args[0])
		fmt.Printf("  %s -feed=power -city=ქუთაისი -verbose\n", os.Args[0])
		fmt.Printf("  %s -feed=power -offline=testdata/batumi.json\n", os.Args[0])
		return
	}

	fmt.Printf("Outage Feed Test\n")
	fmt.Printf("================\n")
	fmt.Printf("Feed type: %s\n", *feedType)
	fmt.Printf("City: %s\n\n", *city)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch *feedType {
	case "power":
		testPower(ctx, *city, *offline, *verbose)
	case "gas":
		testGas(ctx, *city, *verbose)
	case "all":
		testPower(ctx, *city, *offline, *verbose)
		testGas(ctx, *city, *verbose)
	default:
		log.Fatalf("Unknown feed type: %s", *feedType)
	}

	fmt.Printf("\n🎉 Feed test completed!\n")
}

// fileDoer answers every request with the contents of one file
type fileDoer struct {
	path string
}

func (f fileDoer) Do(req *http.Request) (*http.Response, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(string(data))),
		Header:     make(http.Header),
	}, nil
}

func testPower(ctx context.Context, city, offline string, verbose bool) {
	fmt.Printf("⚡ energo-pro\n")

	client := energopro.NewClient("")
	if offline != "" {
		client = energopro.NewClientWithHTTPDoer(energopro.DefaultBaseURL, fileDoer{path: offline})
	}

	raw, err := client.FetchCity(ctx, city)
	if err != nil {
		fmt.Printf("❌ Failed: %v\n\n", err)
		return
	}
	merged := alerts.MergeDuplicates(raw)
	fmt.Printf("✅ %d records, %d after merging service centers\n", len(raw), len(merged))

	hasher := alerts.NewContentHasher()
	for _, a := range merged {
		fmt.Printf("  %s %d %s - %s %s [%s]\n",
			a.Plan().Emoji(), a.TaskID,
			a.Start().In(alerts.Tbilisi).Format("2006-01-02 15:04"),
			a.End().In(alerts.Tbilisi).Format("15:04"),
			a.ScName, hasher.HashAlert(a)[:12])
		if verbose {
			fmt.Printf("%s\n", alerts.FormatSingle(ctx, a, nil))
			tree := a.Areas()
			fmt.Printf("Area tree (%d nodes):\n%s\n", tree.Count(), tree.Format())
		}
	}
	fmt.Println()
}

func testGas(ctx context.Context, city string, verbose bool) {
	fmt.Printf("💨 Socar\n")

	client := socar.NewClient("")
	outages, err := client.FetchCity(ctx, city)
	if err != nil {
		fmt.Printf("❌ Failed: %v\n\n", err)
		return
	}

	now := time.Now()
	var actual int
	for _, o := range outages {
		if !o.IsActual(now) || !o.IsCity(city) {
			continue
		}
		actual++
		fmt.Printf("  %d %s %s\n", o.ObjectID, o.DateRange(), o.Title)
		if verbose {
			output, _ := json.MarshalIndent(o.Detail, "", "  ")
			fmt.Printf("%s\n", output)
		}
	}
	fmt.Printf("✅ %d outages, %d actual in %s\n\n", len(outages), actual, city)
}
