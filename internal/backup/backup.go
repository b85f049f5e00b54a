// Package backup snapshots the on-disk store and uploads it to S3.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/quirelabs/quire/internal/config"
)

// Uploader is the slice of the S3 transfer manager the backup needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// NewUploader builds an S3 uploader from the backup config. Static keys in
// the config win over the ambient credential chain.
func NewUploader(ctx context.Context, cfg config.BackupConfig) (Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return manager.NewUploader(s3.NewFromConfig(awsCfg)), nil
}

// Run archives storeDir and uploads it under the configured bucket and
// prefix. The uploaded object key is returned.
func Run(ctx context.Context, up Uploader, cfg config.BackupConfig, storeDir string) (string, error) {
	if cfg.Bucket == "" {
		return "", fmt.Errorf("backup bucket is not configured")
	}

	archive, err := archiveDir(storeDir)
	if err != nil {
		return "", err
	}
	defer os.Remove(archive)

	f, err := os.Open(archive)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := objectKey(cfg.Prefix, time.Now().UTC())
	_, err = up.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}
	return key, nil
}

func objectKey(prefix string, at time.Time) string {
	name := fmt.Sprintf("quire-%s.tar.gz", at.Format("20060102-150405"))
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// archiveDir writes dir into a temporary tar.gz and returns its path.
func archiveDir(dir string) (string, error) {
	tmp, err := os.CreateTemp("", "quire-backup-*.tar.gz")
	if err != nil {
		return "", err
	}

	gz := gzip.NewWriter(tmp)
	tw := tar.NewWriter(gz)

	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(tw, f)
		return err
	})

	if err := tw.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if err := gz.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if err := tmp.Close(); err != nil && walkErr == nil {
		walkErr = err
	}

	if walkErr != nil {
		os.Remove(tmp.Name())
		return "", walkErr
	}
	return tmp.Name(), nil
}
