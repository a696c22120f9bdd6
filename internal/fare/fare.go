package fare

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/example/sharego/internal/models"
	"github.com/example/sharego/internal/observability"
)

var (
	ErrInvalidDistance    = errors.New("invalid distance")
	ErrInvalidVehicleType = errors.New("invalid vehicle type")
	ErrPricingUnavailable = errors.New("pricing unavailable")
)

// PriceSource supplies the current fuel price per liter. There is no
// hardcoded fallback: when the source fails the quote fails.
type PriceSource interface {
	FuelPricePerLiter(ctx context.Context) (float64, error)
}

// Rates holds the configured pricing constants per vehicle type.
type Rates struct {
	BikeBase       float64
	CarBase        float64
	BikeKmPerLiter float64
	CarKmPerLiter  float64
	BikeCommission float64
	CarCommission  float64
}

// DefaultRates mirror the production tariff sheet.
func DefaultRates() Rates {
	return Rates{
		BikeBase:       50,
		CarBase:        100,
		BikeKmPerLiter: 40,
		CarKmPerLiter:  13,
		BikeCommission: 0.10,
		CarCommission:  0.10,
	}
}

func (r Rates) params(v models.VehicleType) (base, kmPerLiter, commission float64, err error) {
	switch v {
	case models.VehicleBike:
		return r.BikeBase, r.BikeKmPerLiter, r.BikeCommission, nil
	case models.VehicleCar:
		return r.CarBase, r.CarKmPerLiter, r.CarCommission, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidVehicleType, v)
	}
}

// Calculator turns a routed distance into a fare quote.
type Calculator struct {
	Rates  Rates
	Prices PriceSource
}

func NewCalculator(rates Rates, prices PriceSource) *Calculator {
	return &Calculator{Rates: rates, Prices: prices}
}

// Quote is a pure function of its inputs plus the configured rates.
// Total fare is rounded to the nearest integer unit; the commission is
// reported unrounded so the split stays exact.
func (c *Calculator) Quote(ctx context.Context, distanceKm float64, vehicle models.VehicleType) (models.FareQuote, error) {
	if distanceKm <= 0 {
		return models.FareQuote{}, fmt.Errorf("%w: %g km", ErrInvalidDistance, distanceKm)
	}
	base, kmPerLiter, rate, err := c.Rates.params(vehicle)
	if err != nil {
		return models.FareQuote{}, err
	}
	fuelPrice, err := c.Prices.FuelPricePerLiter(ctx)
	if err != nil {
		return models.FareQuote{}, fmt.Errorf("%w: %v", ErrPricingUnavailable, err)
	}
	if fuelPrice <= 0 {
		return models.FareQuote{}, fmt.Errorf("%w: non-positive fuel price %g", ErrPricingUnavailable, fuelPrice)
	}

	fuelCost := distanceKm / kmPerLiter * fuelPrice
	subtotal := base + fuelCost
	commission := subtotal * rate
	total := math.Round(subtotal + commission)

	observability.FareQuotesTotal.Inc()
	return models.FareQuote{TotalFare: total, Commission: commission}, nil
}
