package domain

import "time"

// Source describes one remote feed to pull from. Static configuration,
// never mutated at runtime.
type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// Article is one normalized fetched item. The URL is its identity key;
// the value is immutable once constructed by a fetcher.
type Article struct {
	Title     string
	URL       string
	Summary   string
	Source    string
	Category  string
	Published time.Time
	Extra     map[string]string
}

// DigestItem is one ranked, translated entry of the produced digest.
type DigestItem struct {
	Section    string
	Title      string
	Summary    string
	Importance int
	SourceURL  string
}

// Section pairs a section identifier with its display label and its rank
// in the rendered digest. Lower rank renders first.
type Section struct {
	ID    string
	Label string
	Rank  int
}
