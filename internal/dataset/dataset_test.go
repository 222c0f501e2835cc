package dataset

import "testing"

func TestLoad(t *testing.T) {
	quotes, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(quotes) == 0 {
		t.Fatal("Load() returned no quotes")
	}

	for i, q := range quotes {
		if q.Quote == "" {
			t.Errorf("row %d: empty quote text", i)
		}
		if q.Author == "" {
			t.Errorf("row %d: empty author", i)
		}
		if q.Source == "" {
			t.Errorf("row %d: empty source", i)
		}
	}
}

// The quote selector promises a row for every enumerated character code, so
// every enumerated author must appear at least once in the dataset.
func TestLoad_CoversAllAuthors(t *testing.T) {
	quotes, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	authors := map[string]bool{}
	for _, q := range quotes {
		authors[q.Author] = true
	}

	want := []string{
		"Ada Wong", "Albert Wesker", "Alex Wesker", "Barry Burton",
		"Chris Redfield", "Claire Redfield", "Ethan Winters", "Jill Valentine",
		"Leon Kennedy", "Moira Burton", "Nemesis", "Sheva Alomar",
	}
	for _, author := range want {
		if !authors[author] {
			t.Errorf("dataset has no quotes for %q", author)
		}
	}
}

func TestLoad_CoversAllSources(t *testing.T) {
	quotes, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	sources := map[string]bool{}
	for _, q := range quotes {
		sources[q.Source] = true
	}

	want := []string{
		"Resident Evil 2", "Resident Evil 2 Remake", "Resident Evil 3 Remake",
		"Resident Evil 4", "Resident Evil 5", "Resident Evil 6",
		"Resident Evil 7", "Resident Evil Revelations",
		"Resident Evil Revelations 2", "Resident Evil Village",
	}
	for _, source := range want {
		if !sources[source] {
			t.Errorf("dataset has no quotes from %q", source)
		}
	}
}
