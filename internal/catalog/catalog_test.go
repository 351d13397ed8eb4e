package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestFileNaming(t *testing.T) {
	m := Month{Year: 2024, Month: time.March}

	if got := FileName(Yellow, m); got != "yellow_tripdata_2024-03.parquet" {
		t.Errorf("FileName = %q", got)
	}
	if got := URL(DefaultBaseURL, Green, m); got != "https://d37ci6vzurychx.cloudfront.net/trip-data/green_tripdata_2024-03.parquet" {
		t.Errorf("URL = %q", got)
	}
	if got := URL("http://example.com/data", FHV, m); got != "http://example.com/data/fhv_tripdata_2024-03.parquet" {
		t.Errorf("URL without trailing slash = %q", got)
	}
	if got := Key(FHVHV, m); got != "fhvhv_tripdata/fhvhv_tripdata_2024-03.parquet" {
		t.Errorf("Key = %q", got)
	}
	want := filepath.Join("root", "yellow_tripdata", "yellow_tripdata_2024-03.parquet")
	if got := Path("root", Yellow, m); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	for _, c := range Categories() {
		for _, m := range Between(Month{2019, time.January}, Month{2024, time.December}) {
			if URL(DefaultBaseURL, c, m) != URL(DefaultBaseURL, c, m) {
				t.Fatalf("URL not deterministic for %s %s", c, m)
			}
			if Path("/data", c, m) != Path("/data", c, m) {
				t.Fatalf("Path not deterministic for %s %s", c, m)
			}
		}
	}
}

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want []Month
	}{
		{
			name: "two months",
			from: date(2024, time.February, 20),
			to:   date(2024, time.March, 15),
			want: []Month{{2024, time.February}, {2024, time.March}},
		},
		{
			name: "same month",
			from: date(2024, time.March, 1),
			to:   date(2024, time.March, 31),
			want: []Month{{2024, time.March}},
		},
		{
			name: "year rollover",
			from: date(2023, time.November, 30),
			to:   date(2024, time.February, 1),
			want: []Month{
				{2023, time.November},
				{2023, time.December},
				{2024, time.January},
				{2024, time.February},
			},
		},
		{
			name: "reversed",
			from: date(2024, time.April, 1),
			to:   date(2024, time.March, 1),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthRange(tt.from, tt.to)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("month %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLookback(t *testing.T) {
	now := date(2024, time.March, 15)

	if got := Lookback(now, 0); len(got) != 0 {
		t.Errorf("zero window: expected no months, got %v", got)
	}

	got := Lookback(now, 1)
	if len(got) != 13 {
		t.Fatalf("one year: expected 13 months, got %d", len(got))
	}
	if got[0] != (Month{2023, time.March}) {
		t.Errorf("first month = %s, want 2023-03", got[0])
	}
	if got[len(got)-1] != (Month{2024, time.March}) {
		t.Errorf("last month = %s, want 2024-03", got[len(got)-1])
	}

	if got := Lookback(now, 5); len(got) != 61 {
		t.Errorf("five years: expected 61 months, got %d", len(got))
	}

	// Leap day does not shift the window.
	leap := Lookback(date(2024, time.February, 29), 1)
	if leap[0] != (Month{2023, time.February}) {
		t.Errorf("leap day start = %s, want 2023-02", leap[0])
	}
}

func TestMonthNext(t *testing.T) {
	if got := (Month{2023, time.December}).Next(); got != (Month{2024, time.January}) {
		t.Errorf("Next(2023-12) = %s", got)
	}
	if got := (Month{2023, time.June}).Next(); got != (Month{2023, time.July}) {
		t.Errorf("Next(2023-06) = %s", got)
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2021-07")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	if m != (Month{2021, time.July}) {
		t.Errorf("got %s", m)
	}

	for _, bad := range []string{"", "2021", "2021-13", "07-2021"} {
		if _, err := ParseMonth(bad); err == nil {
			t.Errorf("ParseMonth(%q): expected error", bad)
		}
	}
}

func TestParseCategories(t *testing.T) {
	all, err := ParseCategories(nil)
	if err != nil {
		t.Fatalf("ParseCategories(nil): %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 categories, got %d", len(all))
	}

	got, err := ParseCategories([]string{"yellow", "GREEN_TRIPDATA", "yellow_tripdata"})
	if err != nil {
		t.Fatalf("ParseCategories: %v", err)
	}
	if len(got) != 2 || got[0] != Yellow || got[1] != Green {
		t.Errorf("got %v, want [yellow_tripdata green_tripdata]", got)
	}

	_, err = ParseCategories([]string{"yellow", "purple"})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestPlan(t *testing.T) {
	months := MonthRange(date(2023, time.December, 1), date(2024, time.January, 1))
	tasks := Plan(Spec{
		Base:       "http://origin/",
		Root:       "out",
		Categories: []Category{Yellow, FHV},
		Months:     months,
	})

	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(tasks))
	}

	wantKeys := []string{
		"yellow_tripdata/yellow_tripdata_2023-12.parquet",
		"yellow_tripdata/yellow_tripdata_2024-01.parquet",
		"fhv_tripdata/fhv_tripdata_2023-12.parquet",
		"fhv_tripdata/fhv_tripdata_2024-01.parquet",
	}
	seen := make(map[string]bool)
	for i, task := range tasks {
		if task.Key != wantKeys[i] {
			t.Errorf("task %d key = %s, want %s", i, task.Key, wantKeys[i])
		}
		if seen[task.Path] {
			t.Errorf("duplicate path %s", task.Path)
		}
		seen[task.Path] = true
	}
	if tasks[0].URL != "http://origin/yellow_tripdata_2023-12.parquet" {
		t.Errorf("unexpected URL %s", tasks[0].URL)
	}

	if empty := Plan(Spec{Base: "http://origin/", Categories: Categories()}); len(empty) != 0 {
		t.Errorf("expected no tasks without months, got %d", len(empty))
	}
}
