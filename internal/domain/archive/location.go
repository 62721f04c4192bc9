package archive

import (
	"net/url"
	"strings"

	"github.com/temba/backend/internal/domain/shared"
)

// ErrInvalidURL is returned for archive URLs that don't point into a bucket
var ErrInvalidURL = shared.NewDomainError("INVALID_ARCHIVE_URL", "Archive URL must be an S3 URL with a bucket and key")

// ParseLocation extracts the bucket and key from an archive URL. Both
// virtual-hosted style URLs (https://bucket.s3.amazonaws.com/key or with a
// regional endpoint) and s3://bucket/key URLs are accepted.
func ParseLocation(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", ErrInvalidURL
	}

	switch u.Scheme {
	case "s3":
		bucket = u.Host
	case "https", "http":
		idx := strings.Index(u.Host, ".s3")
		if idx <= 0 {
			return "", "", ErrInvalidURL
		}
		bucket = u.Host[:idx]
	default:
		return "", "", ErrInvalidURL
	}

	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", ErrInvalidURL
	}
	return bucket, key, nil
}

// BuildURL returns the virtual-hosted style URL of an object
func BuildURL(bucket, key string) string {
	return "https://" + bucket + ".s3.amazonaws.com/" + key
}
