package models_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/recycle_backend/models"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/shopspring/decimal"
)

func TestPointsForWeightTruncatesFractionalKilos(t *testing.T) {
	cases := []struct {
		weight string
		rate   int
		want   int
	}{
		{"5", 100, 500},
		{"5.99", 100, 500},
		{"0.99", 100, 0},
		{"0.01", 100, 0},
		{"12.50", 100, 1200},
		{"3", 0, 0},
		{"3", 7, 21},
	}
	for _, tc := range cases {
		w, err := decimal.NewFromString(tc.weight)
		if err != nil {
			t.Fatalf("bad weight %q: %v", tc.weight, err)
		}
		if got := models.PointsForWeight(w, tc.rate); got != tc.want {
			t.Errorf("PointsForWeight(%s, %d) = %d; want %d", tc.weight, tc.rate, got, tc.want)
		}
	}
}

func TestSetConversionRateRejectsNegative(t *testing.T) {
	_, err := models.SetConversionRate(context.Background(), -1)
	if !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("expected validation error for negative rate; got %v", err)
	}
}

func TestProductKindUnmarshal(t *testing.T) {
	var k models.ProductKind
	if err := json.Unmarshal([]byte(`"C"`), &k); err != nil {
		t.Fatalf("unmarshal C: %v", err)
	}
	if k != models.ProductKindRedeemable {
		t.Fatalf("expected redeemable; got %q", k)
	}
	if err := json.Unmarshal([]byte(`"X"`), &k); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if err := json.Unmarshal([]byte(`3`), &k); err == nil {
		t.Fatal("expected error for non-string kind")
	}
}

func TestTransactionKindIsValid(t *testing.T) {
	if !models.TransactionKindRedemption.IsValid() || !models.TransactionKindSale.IsValid() {
		t.Fatal("known kinds must validate")
	}
	if models.TransactionKind("Refund").IsValid() {
		t.Fatal("unknown kind must not validate")
	}
}

func TestProductSnapshotRendersPriceAndImageURL(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_BASE_URL", "https://cdn.example.com/assets")

	p := models.Product{
		ID:             7,
		Name:           "Thermo Bottle",
		Price:          decimal.RequireFromString("19.5"),
		PointsRequired: 200,
		Kind:           models.ProductKindRedeemable,
		ImageKey:       "products/bottle.png",
	}
	snap := p.Snapshot()
	if snap.Price != "19.50" {
		t.Errorf("expected price rendered as 19.50; got %q", snap.Price)
	}
	if snap.ImageUrl != "https://cdn.example.com/assets/products/bottle.png" {
		t.Errorf("unexpected image url %q", snap.ImageUrl)
	}
	if snap.PointsRequired != 200 || snap.Id != 7 {
		t.Errorf("snapshot lost fields: %+v", snap)
	}
}
