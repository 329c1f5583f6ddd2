package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/nexusfarm/nexus/internal/domain"
	"github.com/nexusfarm/nexus/internal/events"
	"github.com/rs/zerolog"
)

// Upload is an optional image attached to a new listing
type Upload struct {
	Filename string
	Body     io.Reader
}

// Service implements catalogue business rules
type Service struct {
	repo     *Repository
	images   *ImageStore
	activity domain.ActivityRecorder
	events   domain.EventEmitter
	log      zerolog.Logger
}

// NewService creates a products service. activity and emitter may be nil.
func NewService(repo *Repository, images *ImageStore, activity domain.ActivityRecorder, emitter domain.EventEmitter, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		images:   images,
		activity: activity,
		events:   emitter,
		log:      log.With().Str("service", "products").Logger(),
	}
}

// Create lists a new product for farmerID
func (s *Service) Create(ctx context.Context, farmerID int64, req CreateRequest, image *Upload) (*Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case req.Price <= 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0):
		return nil, fmt.Errorf("%w: price must be greater than zero", ErrInvalidInput)
	case req.Quantity < 0:
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}

	p := &Product{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		Category: strings.TrimSpace(req.Category),
		Location: strings.TrimSpace(req.Location),
		Image:    DefaultImage,
		FarmerID: farmerID,
	}
	if p.Location == "" {
		p.Location = DefaultLocation
	}

	// An upload that is not an allowed image keeps the default image.
	if image != nil && image.Filename != "" {
		if s.images == nil {
			s.log.Warn().Str("filename", image.Filename).Msg("Uploads disabled, using default image")
		} else {
			stored, err := s.images.Save(image.Filename, image.Body)
			switch {
			case errors.Is(err, ErrUnsupportedImage):
				s.log.Warn().Str("filename", image.Filename).Msg("Unsupported image type, using default image")
			case err != nil:
				return nil, err
			default:
				p.Image = stored
			}
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if s.images != nil {
			s.images.Remove(p.Image)
		}
		return nil, err
	}

	if s.activity != nil {
		if err := s.activity.Record(ctx, farmerID, fmt.Sprintf("Added product %s", p.Name)); err != nil {
			s.log.Warn().Err(err).Msg("Failed to record activity")
		}
	}
	if s.events != nil {
		s.events.EmitTyped("products", &events.ProductCreatedData{
			ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: p.Quantity, FarmerID: farmerID,
		})
	}
	return p, nil
}

// Get returns one product
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Search lists all products, or those matching q when it is not blank
func (s *Service) Search(ctx context.Context, q string) ([]Product, error) {
	if strings.TrimSpace(q) == "" {
		return s.repo.List(ctx)
	}
	return s.repo.Search(ctx, q)
}

// ListByFarmer returns a farmer's own listings
func (s *Service) ListByFarmer(ctx context.Context, farmerID int64) ([]Product, error) {
	return s.repo.ListByFarmer(ctx, farmerID)
}

// TotalInventory returns the summed stock of every listing
func (s *Service) TotalInventory(ctx context.Context) (int64, error) {
	return s.repo.TotalInventory(ctx)
}
