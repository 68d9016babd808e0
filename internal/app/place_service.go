package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/me-cbr/por-onde-andei/internal/geo"
	"github.com/me-cbr/por-onde-andei/internal/storage"
)

// addressUnavailable is stored when the address lookup collaborator
// fails or is not configured. Saving a place always succeeds.
const addressUnavailable = "Endereço não disponível"

type PlaceService struct {
	places    storage.PlaceRepository
	addresses AddressLookup
	logger    *slog.Logger
}

// NewPlaceService wires the place repository with an optional address
// lookup; pass nil when no geocoding provider is configured.
func NewPlaceService(places storage.PlaceRepository, addresses AddressLookup, logger *slog.Logger) *PlaceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaceService{
		places:    places,
		addresses: addresses,
		logger:    logger,
	}
}

func (s *PlaceService) Create(ctx context.Context, ownerID int64, req CreatePlaceRequest) (*storage.Place, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PhotoURI) == "" {
		return nil, fmt.Errorf("%w: photo is required", ErrValidation)
	}
	if ownerID == 0 {
		return nil, fmt.Errorf("%w: owner is required", ErrValidation)
	}

	// A lone coordinate is discarded: location is both-or-neither.
	var location *storage.Coordinates
	if req.Latitude != nil && req.Longitude != nil {
		location = &storage.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	address := req.Address
	if address == "" && location != nil {
		address = s.resolveAddress(ctx, *location)
	}

	place := &storage.Place{
		Title:     req.Title,
		PhotoURI:  req.PhotoURI,
		Address:   address,
		Location:  location,
		PhotoDate: req.PhotoTakenAt,
		OwnerID:   ownerID,
	}
	if err := s.places.Create(ctx, place); err != nil {
		return nil, fmt.Errorf("create place: %w", err)
	}
	return place, nil
}

func (s *PlaceService) Update(ctx context.Context, ownerID int64, req UpdatePlaceRequest) error {
	if req.ID == "" {
		return fmt.Errorf("%w: place id is required", ErrValidation)
	}
	if err := validateTitle(req.Title); err != nil {
		return err
	}
	if err := s.places.Update(ctx, req.ID, req.Title, req.Address, ownerID); err != nil {
		return fmt.Errorf("update place: %w", err)
	}
	return nil
}

func (s *PlaceService) ToggleFavorite(ctx context.Context, ownerID int64, placeID string) (bool, error) {
	if placeID == "" {
		return false, fmt.Errorf("%w: place id is required", ErrValidation)
	}
	state, err := s.places.ToggleFavorite(ctx, placeID, ownerID)
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	return state, nil
}

func (s *PlaceService) List(ctx context.Context, ownerID int64) ([]storage.Place, error) {
	places, err := s.places.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}
	return places, nil
}

func (s *PlaceService) ListFavorites(ctx context.Context, ownerID int64) ([]storage.Place, error) {
	places, err := s.places.ListFavoritesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list favorite places: %w", err)
	}
	return places, nil
}

func (s *PlaceService) Get(ctx context.Context, ownerID int64, placeID string) (*storage.Place, error) {
	place, err := s.places.Get(ctx, placeID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get place: %w", err)
	}
	return place, nil
}

func (s *PlaceService) Delete(ctx context.Context, ownerID int64, placeID string) error {
	if placeID == "" {
		return fmt.Errorf("%w: place id is required", ErrValidation)
	}
	if err := s.places.Delete(ctx, placeID, ownerID); err != nil {
		return fmt.Errorf("delete place: %w", err)
	}
	return nil
}

// resolveAddress degrades to the placeholder on any lookup problem so
// the save flow never blocks on the network.
func (s *PlaceService) resolveAddress(ctx context.Context, location storage.Coordinates) string {
	if s.addresses == nil {
		return addressUnavailable
	}

	address, err := s.addresses.FormattedAddress(ctx, geo.Point{
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
	})
	if err != nil {
		s.logger.Warn("address lookup failed, storing placeholder",
			slog.Float64("latitude", location.Latitude),
			slog.Float64("longitude", location.Longitude),
			slog.String("error", err.Error()),
		)
		return addressUnavailable
	}
	return address
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrValidation, maxTitleLength)
	}
	return nil
}
