package trending

import "testing"

func TestRankCutoff(t *testing.T) {
	products := []Product{
		{ID: "low", ReviewCount: 10, RatingSum: 30},      // average 3.0
		{ID: "edge", ReviewCount: 2, RatingSum: 7},       // average 3.5 exactly
		{ID: "unreviewed", ReviewCount: 0, RatingSum: 0}, // average 0
	}
	got := Rank(products, 0, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 product past the cutoff, got %d", len(got))
	}
	if got[0].ID != "edge" {
		t.Fatalf("expected the 3.5-average product included, got %s", got[0].ID)
	}
	if got[0].Score != got[0].AverageRating {
		t.Fatalf("score must equal average rating, got score=%f avg=%f", got[0].Score, got[0].AverageRating)
	}
}

func TestRankOrdering(t *testing.T) {
	products := []Product{
		{ID: "a", ReviewCount: 1, RatingSum: 5},  // 5.0
		{ID: "b", ReviewCount: 5, RatingSum: 21}, // 4.2
		{ID: "c", ReviewCount: 2, RatingSum: 7},  // 3.5
		{ID: "d", ReviewCount: 10, RatingSum: 49}, // 4.9
	}
	got := Rank(products, 0, 0)
	want := []string{"a", "d", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d products, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestRankStableTieBreak(t *testing.T) {
	products := []Product{
		{ID: "first", ReviewCount: 1, RatingSum: 4},
		{ID: "second", ReviewCount: 2, RatingSum: 8},
	}
	got := Rank(products, 0, 0)
	if got[0].ID != "first" || got[1].ID != "second" {
		t.Fatalf("ties must keep input order, got %s then %s", got[0].ID, got[1].ID)
	}
}

func TestRankTruncates(t *testing.T) {
	products := make([]Product, 0, 20)
	for i := 0; i < 20; i++ {
		products = append(products, Product{ID: string(rune('a' + i)), ReviewCount: 1, RatingSum: 4})
	}
	if got := Rank(products, 0, 0); len(got) != DefaultLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultLimit, len(got))
	}
	if got := Rank(products, 5, 0); len(got) != 5 {
		t.Fatalf("expected 5, got %d", len(got))
	}
}

func TestRankEmptyInput(t *testing.T) {
	if got := Rank(nil, 0, 0); len(got) != 0 {
		t.Fatalf("empty input should rank to empty output, got %d", len(got))
	}
}
