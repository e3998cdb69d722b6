// Package media stores user avatars on an S3-compatible image host.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/chatauth/internal/common"
	sc "github.com/dmitrijs2005/chatauth/internal/server/config"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// S3Uploader puts avatars into a bucket and hands back their public URL.
type S3Uploader struct {
	config *sc.Config
	now    func() time.Time
}

func NewS3Uploader(config *sc.Config) *S3Uploader {
	return &S3Uploader{config: config, now: time.Now}
}

// StorageKey returns a fresh object key for an avatar with extension ext
// (including the dot), grouped by upload date.
func StorageKey(d time.Time, ext string) string {
	return fmt.Sprintf("avatars/%04d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (u *S3Uploader) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(u.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.config.S3RootUser,
			u.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if u.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(u.config.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// allowedAvatarTypes are raster formats only. SVG can carry script and
// the bucket serves objects publicly.
var allowedAvatarTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Upload decodes payload, checks that it is an image within the size
// limit and stores it. payload is either a data URI or bare base64.
//
// Bad input yields common.ErrInvalidAvatar or common.ErrAvatarTooLarge;
// host failures are coded UPLOAD_FAILED and wrap common.ErrUploadFailed.
func (u *S3Uploader) Upload(ctx context.Context, payload string) (string, error) {
	data, err := DecodePayload(payload, u.config.AvatarMaxBytes)
	if err != nil {
		return "", err
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedAvatarTypes...) {
		return "", fmt.Errorf("%w: detected %s", common.ErrInvalidAvatar, mtype.String())
	}

	client, err := u.getClient(ctx)
	if err != nil {
		return "", uploadFailure("configure client", err)
	}

	bucket := u.config.S3Bucket
	key := StorageKey(u.now().UTC(), mtype.Extension())
	contentType := mtype.String()

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   &contentType,
	}); err != nil {
		return "", uploadFailure("put object", err, "key", key)
	}

	return u.PublicURL(key), nil
}

// PublicURL is where clients fetch the object stored under key.
func (u *S3Uploader) PublicURL(key string) string {
	return strings.TrimRight(u.config.S3PublicBaseURL, "/") + "/" + u.config.S3Bucket + "/" + key
}

// DecodePayload turns a data URI or bare base64 string into bytes.
// maxBytes <= 0 disables the size check.
func DecodePayload(payload string, maxBytes int64) ([]byte, error) {
	encoded := payload
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		meta, body, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("%w: unsupported data URI", common.ErrInvalidAvatar)
		}
		encoded = body
	}

	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(encoded))) > maxBytes+2 {
		return nil, common.ErrAvatarTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidAvatar, err)
	}
	if len(data) == 0 {
		return nil, common.ErrMissingAvatar
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, common.ErrAvatarTooLarge
	}
	return data, nil
}

func uploadFailure(op string, err error, kv ...any) error {
	return oops.Code("UPLOAD_FAILED").In("media").With("op", op).With(kv...).Wrap(fmt.Errorf("%w: %w", common.ErrUploadFailed, err))
}
