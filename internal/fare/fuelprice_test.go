package fare

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFeedClientParsesPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price_per_liter": 272.5, "currency": "PKR"}`))
	}))
	defer srv.Close()

	f := NewFeedClient(srv.URL)
	p, err := f.FuelPricePerLiter(context.Background())
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if p != 272.5 {
		t.Fatalf("expected 272.5, got %g", p)
	}
}

func TestFeedClientRejectsBadResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer srv.Close()

	f := NewFeedClient(srv.URL)
	if _, err := f.FuelPricePerLiter(context.Background()); err == nil {
		t.Fatal("expected error on 500")
	}

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"price_per_liter": 0}`))
	}))
	defer srv2.Close()

	f = NewFeedClient(srv2.URL)
	if _, err := f.FuelPricePerLiter(context.Background()); err == nil {
		t.Fatal("expected error on non-positive price")
	}
}
