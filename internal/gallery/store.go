// Package gallery serves the photo gallery from an S3 or MinIO bucket.
// Photos are organized one album per top-level prefix; clients receive
// short-lived presigned URLs instead of proxied bytes.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sonam-git/hscsonoma-backend/internal/config"
)

// ErrAlbumNotFound means the album prefix holds no photos.
var ErrAlbumNotFound = errors.New("album not found")

// Album is one top-level prefix in the gallery bucket.
type Album struct {
	Name string `json:"name"`
}

// Photo is one object in an album, addressable through a presigned URL
// until URL expiry.
type Photo struct {
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// presignAPI is the slice of s3.PresignClient the store uses; tests
// substitute a fake.
type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Store lists albums and photos from the bucket.
type Store struct {
	client    s3.ListObjectsV2APIClient
	presigner presignAPI
	bucket    string
	urlExpiry time.Duration
}

// NewStore creates a gallery store from configuration.
func NewStore(cfg config.GalleryConfig) *Store {
	var endpointURL *string
	if cfg.Endpoint != "" {
		url := cfg.Endpoint
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			protocol := "http"
			if cfg.UseSSL {
				protocol = "https"
			}
			url = protocol + "://" + url
		}
		endpointURL = aws.String(url)
	}

	client := s3.New(s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		BaseEndpoint: endpointURL,
		// Path-style addressing keeps MinIO working.
		UsePathStyle: endpointURL != nil,
	})

	urlExpiry := cfg.PresignedURLExpiry
	if urlExpiry == 0 {
		urlExpiry = 15 * time.Minute
	}

	return &Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		urlExpiry: urlExpiry,
	}
}

// Albums lists the gallery's albums in alphabetical order.
func (s *Store) Albums(ctx context.Context) ([]Album, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Delimiter: aws.String("/"),
	})
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}

	albums := make([]Album, 0, len(out.CommonPrefixes))
	for _, p := range out.CommonPrefixes {
		if p.Prefix == nil {
			continue
		}
		albums = append(albums, Album{Name: strings.TrimSuffix(*p.Prefix, "/")})
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })
	return albums, nil
}

// Photos lists an album's photos, newest first, each with a presigned URL.
func (s *Store) Photos(ctx context.Context, album string) ([]Photo, error) {
	prefix := album + "/"
	var photos []Photo

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing album %q: %w", album, err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil || !isImage(*obj.Key) {
				continue
			}

			req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}, func(opts *s3.PresignOptions) {
				opts.Expires = s.urlExpiry
			})
			if err != nil {
				return nil, fmt.Errorf("presigning %q: %w", *obj.Key, err)
			}

			photo := Photo{
				Name: path.Base(*obj.Key),
				URL:  req.URL,
			}
			if obj.Size != nil {
				photo.Size = *obj.Size
			}
			if obj.LastModified != nil {
				photo.LastModified = *obj.LastModified
			}
			photos = append(photos, photo)
		}
	}

	if len(photos) == 0 {
		return nil, ErrAlbumNotFound
	}

	sort.Slice(photos, func(i, j int) bool { return photos[i].LastModified.After(photos[j].LastModified) })
	return photos, nil
}

func isImage(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}
