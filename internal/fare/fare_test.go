package fare

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/example/sharego/internal/models"
)

type fixedPrice struct{ v float64 }

func (f fixedPrice) FuelPricePerLiter(ctx context.Context) (float64, error) { return f.v, nil }

type downPrice struct{}

func (downPrice) FuelPricePerLiter(ctx context.Context) (float64, error) {
	return 0, errors.New("feed down")
}

func TestQuoteCarExample(t *testing.T) {
	c := NewCalculator(DefaultRates(), fixedPrice{255})
	q, err := c.Quote(context.Background(), 10, models.VehicleCar)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.TotalFare != 326 {
		t.Fatalf("expected total 326, got %g", q.TotalFare)
	}
	if math.Abs(q.Commission-29.6153846) > 1e-6 {
		t.Fatalf("unexpected commission %g", q.Commission)
	}
}

func TestQuoteBikeExample(t *testing.T) {
	c := NewCalculator(DefaultRates(), fixedPrice{255})
	q, err := c.Quote(context.Background(), 10, models.VehicleBike)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.TotalFare != 125 {
		t.Fatalf("expected total 125, got %g", q.TotalFare)
	}
	if q.Commission != 11.375 {
		t.Fatalf("expected commission 11.375, got %g", q.Commission)
	}
}

func TestQuoteDeterministic(t *testing.T) {
	c := NewCalculator(DefaultRates(), fixedPrice{271.5})
	a, err := c.Quote(context.Background(), 7.3, models.VehicleCar)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	b, err := c.Quote(context.Background(), 7.3, models.VehicleCar)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if a != b {
		t.Fatalf("quotes differ: %+v vs %+v", a, b)
	}
	if a.Commission >= a.TotalFare || a.Commission < 0 {
		t.Fatalf("invariant violated: commission=%g total=%g", a.Commission, a.TotalFare)
	}
}

func TestQuoteInvalidDistance(t *testing.T) {
	c := NewCalculator(DefaultRates(), fixedPrice{255})
	if _, err := c.Quote(context.Background(), 0, models.VehicleCar); !errors.Is(err, ErrInvalidDistance) {
		t.Fatalf("expected ErrInvalidDistance, got %v", err)
	}
	if _, err := c.Quote(context.Background(), -3, models.VehicleBike); !errors.Is(err, ErrInvalidDistance) {
		t.Fatalf("expected ErrInvalidDistance, got %v", err)
	}
}

func TestQuoteInvalidVehicle(t *testing.T) {
	c := NewCalculator(DefaultRates(), fixedPrice{255})
	if _, err := c.Quote(context.Background(), 5, "rickshaw"); !errors.Is(err, ErrInvalidVehicleType) {
		t.Fatalf("expected ErrInvalidVehicleType, got %v", err)
	}
}

func TestQuotePricingUnavailable(t *testing.T) {
	c := NewCalculator(DefaultRates(), downPrice{})
	if _, err := c.Quote(context.Background(), 5, models.VehicleCar); !errors.Is(err, ErrPricingUnavailable) {
		t.Fatalf("expected ErrPricingUnavailable, got %v", err)
	}

	c = NewCalculator(DefaultRates(), fixedPrice{0})
	if _, err := c.Quote(context.Background(), 5, models.VehicleCar); !errors.Is(err, ErrPricingUnavailable) {
		t.Fatalf("expected ErrPricingUnavailable for zero price, got %v", err)
	}
}
