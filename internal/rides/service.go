package rides

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/sharego/internal/fare"
	"github.com/example/sharego/internal/geo"
	"github.com/example/sharego/internal/models"
	"github.com/example/sharego/internal/observability"
	"github.com/example/sharego/internal/storage"
)

var (
	ErrMissingSearchCriteria  = errors.New("missing search criteria")
	ErrIncompleteCounterparty = errors.New("incomplete counterparty profile")
	ErrInvalidRole            = errors.New("invalid role")
	ErrInvalidSchedule        = errors.New("scheduled time must be in the future")
	ErrMissingPlace           = errors.New("pickup and dropoff are required")
)

// EventPublisher receives ride lifecycle events. Publishing is best-effort;
// the state transition itself never depends on the broker.
type EventPublisher interface {
	PublishRideEvent(ctx context.Context, ev models.RideEvent) error
}

// PaymentHolder places a hold for the fare amount when a post is booked.
type PaymentHolder interface {
	Hold(ctx context.Context, amount int64, currency, customerID string) (string, error)
}

// Service centralizes the fare, search and booking rules that the mobile
// screens used to duplicate.
type Service struct {
	Store    storage.RideStore
	Fare     *fare.Calculator
	Geocoder geo.Geocoder
	Router   geo.Router
	Events   EventPublisher
	Payments PaymentHolder
	Currency string
	Logger   *slog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// CreateInput is the POST /rides payload. Coordinates are optional; missing
// ones are resolved through the geocoder.
type CreateInput struct {
	Role         models.Role        `json:"role"`
	PosterID     string             `json:"poster_id"`
	PickupText   string             `json:"pickup"`
	DropoffText  string             `json:"dropoff"`
	PickupCoord  *models.Coord      `json:"pickup_coord,omitempty"`
	DropoffCoord *models.Coord      `json:"dropoff_coord,omitempty"`
	VehicleType  models.VehicleType `json:"vehicle_type"`
	ScheduledAt  time.Time          `json:"scheduled_at"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.RidePost, error) {
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}
	if !in.VehicleType.Valid() {
		return nil, fmt.Errorf("%w: %q", fare.ErrInvalidVehicleType, in.VehicleType)
	}
	if strings.TrimSpace(in.PickupText) == "" || strings.TrimSpace(in.DropoffText) == "" {
		return nil, ErrMissingPlace
	}
	if !in.ScheduledAt.After(s.now()) {
		return nil, ErrInvalidSchedule
	}

	pickup, err := s.resolve(ctx, in.PickupCoord, in.PickupText)
	if err != nil {
		return nil, err
	}
	dropoff, err := s.resolve(ctx, in.DropoffCoord, in.DropoffText)
	if err != nil {
		return nil, err
	}

	if s.Router == nil {
		return nil, fmt.Errorf("%w: no router configured", geo.ErrRoutingUnavailable)
	}
	distanceKm, err := s.Router.DistanceKm(ctx, pickup, dropoff, in.VehicleType)
	if err != nil {
		return nil, err
	}
	quote, err := s.Fare.Quote(ctx, distanceKm, in.VehicleType)
	if err != nil {
		return nil, err
	}

	post := &models.RidePost{
		ID:           newID(),
		Role:         in.Role,
		PosterID:     in.PosterID,
		PickupText:   in.PickupText,
		DropoffText:  in.DropoffText,
		PickupCoord:  &pickup,
		DropoffCoord: &dropoff,
		VehicleType:  in.VehicleType,
		DistanceKm:   distanceKm,
		Fare:         quote.TotalFare,
		Commission:   quote.Commission,
		ScheduledAt:  in.ScheduledAt,
		CreatedAt:    s.now(),
	}
	if err := s.Store.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.Inc()
	s.publish(ctx, "posted", post)
	return post, nil
}

func (s *Service) resolve(ctx context.Context, c *models.Coord, place string) (models.Coord, error) {
	if c != nil {
		return *c, nil
	}
	if s.Geocoder == nil {
		return models.Coord{}, errors.New("no geocoder configured")
	}
	return s.Geocoder.Geocode(ctx, place)
}

// Search returns unbooked posts of the opposite role whose pickup/dropoff
// text contains the given filters, case-insensitively, in insertion order.
// At least one filter must be supplied.
func (s *Service) Search(ctx context.Context, searcher models.Role, pickup, dropoff string) ([]*models.RidePost, error) {
	if !searcher.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, searcher)
	}
	pickup = strings.ToLower(strings.TrimSpace(pickup))
	dropoff = strings.ToLower(strings.TrimSpace(dropoff))
	if pickup == "" && dropoff == "" {
		return nil, ErrMissingSearchCriteria
	}
	posts, err := s.Store.ListUnbooked(ctx, searcher.Opposite())
	if err != nil {
		return nil, err
	}
	out := make([]*models.RidePost, 0, len(posts))
	for _, p := range posts {
		if pickup != "" && !strings.Contains(strings.ToLower(p.PickupText), pickup) {
			continue
		}
		if dropoff != "" && !strings.Contains(strings.ToLower(p.DropoffText), dropoff) {
			continue
		}
		out = append(out, p)
	}
	observability.SearchesTotal.Inc()
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.RidePost, error) {
	return s.Store.Get(ctx, id)
}

// Book marks a post as taken by the counterparty. The store performs the
// conditional transition, so of two concurrent attempts exactly one wins and
// the loser sees storage.ErrAlreadyBooked. A failed attempt mutates nothing.
func (s *Service) Book(ctx context.Context, id string, cp models.Counterparty) (*models.RidePost, error) {
	post, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateCounterparty(post.Role, cp); err != nil {
		return nil, err
	}
	booked, err := s.Store.Book(ctx, id, cp)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyBooked) {
			observability.BookingConflicts.Inc()
		}
		return nil, err
	}
	observability.BookingsTotal.Inc()
	s.publish(ctx, "booked", booked)
	s.hold(ctx, booked, cp)
	return booked, nil
}

// validateCounterparty enforces the complete-profile rule. Whoever books a
// rider request is a driver and must supply vehicle details; whoever books a
// driver offer is a rider and needs none.
func validateCounterparty(postRole models.Role, cp models.Counterparty) error {
	missing := []string{}
	if strings.TrimSpace(cp.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(cp.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(cp.Contact) == "" {
		missing = append(missing, "contact")
	}
	if postRole == models.RoleRiderRequest {
		if strings.TrimSpace(cp.VehicleNumber) == "" {
			missing = append(missing, "vehicle_number")
		}
		if strings.TrimSpace(cp.VehicleColor) == "" {
			missing = append(missing, "vehicle_color")
		}
		if strings.TrimSpace(cp.VehicleModel) == "" {
			missing = append(missing, "vehicle_model")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteCounterparty, strings.Join(missing, ", "))
	}
	return nil
}

// Cancel removes an unbooked post. Booked posts cannot be cancelled here.
func (s *Service) Cancel(ctx context.Context, id string) error {
	post, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "cancelled", post)
	return nil
}

func (s *Service) publish(ctx context.Context, typ string, post *models.RidePost) {
	if s.Events == nil {
		return
	}
	ev := models.RideEvent{Type: typ, PostID: post.ID, Role: post.Role, At: s.now()}
	if err := s.Events.PublishRideEvent(ctx, ev); err != nil {
		s.log().Warn("ride event publish failed", "type", typ, "post_id", post.ID, "error", err)
	}
}

func (s *Service) hold(ctx context.Context, post *models.RidePost, cp models.Counterparty) {
	if s.Payments == nil {
		return
	}
	currency := s.Currency
	if currency == "" {
		currency = "pkr"
	}
	holdID, err := s.Payments.Hold(ctx, int64(post.Fare), currency, cp.ID)
	if err != nil {
		s.log().Warn("fare hold failed", "post_id", post.ID, "error", err)
		return
	}
	s.log().Info("fare held", "post_id", post.ID, "hold_id", holdID)
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
