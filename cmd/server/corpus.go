package main

import (
	"log"

	"github.com/georgia-utilities/alertbot/internal/config"
	"github.com/georgia-utilities/alertbot/internal/lib/streets"
)

// newCorpus loads the street corpus, or returns nil when none is available
func newCorpus(appConfig *config.Config) *streets.Corpus {
	if appConfig.Corpus.Dir == "" {
		return nil
	}

	corpus := streets.NewCorpus(appConfig.Map.Weights)
	loaded, err := corpus.LoadDir(appConfig.Corpus.Dir)
	if err != nil {
		log.Printf("Failed to load street corpus: %v", err)
		return nil
	}
	if corpus.Len() == 0 {
		log.Printf("Street corpus in %s is empty, maps disabled", appConfig.Corpus.Dir)
		return nil
	}
	for city, n := range loaded {
		log.Printf("Street corpus %s: %d streets", city, n)
	}
	return corpus
}
