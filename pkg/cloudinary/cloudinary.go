// Package cloudinary hosts image-based scratch cards.
package cloudinary

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Uploader stores a card image and returns its delivery URL.
type Uploader interface {
	UploadCardImage(ctx context.Context, file io.Reader, publicID string) (string, error)
}

// Delivery transformation for card images embedded in emails.
const (
	CardImageWidth = 800
	cardEager      = "q_auto,f_auto,w_800,c_limit"
)

var eagerAsyncFalse = false

// BuildCardImageURL returns the delivery URL for an already uploaded card image.
func BuildCardImageURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = CardImageWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_limit/%s",
		cloudName, width, publicID)
}

type client struct {
	cloudName string
	folder    string
	uploader  *uploader.API
}

func (c *client) UploadCardImage(ctx context.Context, file io.Reader, publicID string) (string, error) {
	overwrite := false
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     c.folder,
		PublicID:   publicID,
		Overwrite:  &overwrite,
		Eager:      cardEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", fmt.Errorf("upload card image: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("upload card image: %s", result.Error.Message)
	}
	if len(result.Eager) > 0 && result.Eager[0].SecureURL != "" {
		return result.Eager[0].SecureURL, nil
	}
	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	return BuildCardImageURL(c.cloudName, result.PublicID, 0), nil
}

// NewUploader builds an Uploader from account credentials.
func NewUploader(cfg Config) (Uploader, error) {
	cld, err := config.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cld)
	if err != nil {
		return nil, err
	}
	folder := cfg.Folder
	if folder == "" {
		folder = "scratch-cards"
	}
	return &client{cloudName: cfg.CloudName, folder: folder, uploader: up}, nil
}
