package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pinvault/internal/domain"
	"pinvault/internal/models"
	"pinvault/internal/repository"
	"pinvault/pkg/cloudinary"

	"go.uber.org/zap"
)

var ErrImagesDisabled = errors.New("card image upload is not configured")

type CardInput struct {
	Pin          string `json:"pin"`
	SerialNumber string `json:"serialNumber"`
}

// InventoryService restocks the card pool.
type InventoryService struct {
	cards    *repository.CardRepository
	uploader cloudinary.Uploader
	logger   *zap.Logger
}

// NewInventoryService accepts a nil uploader; image cards are then rejected.
func NewInventoryService(cards *repository.CardRepository, uploader cloudinary.Uploader, logger *zap.Logger) *InventoryService {
	return &InventoryService{cards: cards, uploader: uploader, logger: logger}
}

func (s *InventoryService) Restock(ctx context.Context, cardType string, price int64, inputs []CardInput) (int, error) {
	if err := validateStock(cardType, price); err != nil {
		return 0, err
	}
	if len(inputs) == 0 {
		return 0, errors.New("no cards supplied")
	}
	cards := make([]models.ScratchCard, 0, len(inputs))
	for i, in := range inputs {
		pin, serial := strings.TrimSpace(in.Pin), strings.TrimSpace(in.SerialNumber)
		if pin == "" || serial == "" {
			return 0, fmt.Errorf("card %d: pin and serial number are required", i)
		}
		cards = append(cards, models.ScratchCard{Type: cardType, Pin: pin, SerialNumber: serial, Price: price})
	}
	if err := s.cards.CreateBatch(ctx, cards); err != nil {
		return 0, err
	}
	s.logger.Info("cards restocked", zap.String("card_type", cardType), zap.Int("count", len(cards)))
	return len(cards), nil
}

// AddImageCard uploads a card scan and stores it as an image-based card with no PIN.
func (s *InventoryService) AddImageCard(ctx context.Context, cardType string, price int64, serial string, file io.Reader) (*models.ScratchCard, error) {
	if s.uploader == nil {
		return nil, ErrImagesDisabled
	}
	if err := validateStock(cardType, price); err != nil {
		return nil, err
	}
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, errors.New("serial number is required")
	}
	url, err := s.uploader.UploadCardImage(ctx, file, strings.ToLower(cardType)+"-"+serial)
	if err != nil {
		return nil, err
	}
	batch := []models.ScratchCard{{Type: cardType, SerialNumber: serial, ImageURL: url, Price: price}}
	if err := s.cards.CreateBatch(ctx, batch); err != nil {
		return nil, err
	}
	s.logger.Info("image card added", zap.String("card_type", cardType), zap.String("serial", serial))
	return &batch[0], nil
}

func (s *InventoryService) Available(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64, len(domain.CardTypes))
	for _, t := range domain.CardTypes {
		n, err := s.cards.CountAvailable(ctx, t)
		if err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, nil
}

func validateStock(cardType string, price int64) error {
	if !domain.IsCardType(cardType) {
		return fmt.Errorf("%w: %q", ErrInvalidProduct, cardType)
	}
	if price <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
