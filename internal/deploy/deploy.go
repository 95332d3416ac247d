// Package deploy syncs the production build output to an S3 bucket.
package deploy

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/replayview/replayview/internal/config"
	"github.com/replayview/replayview/internal/errors"
)

// ObjectPutter is the slice of the S3 client the deployer uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures a deploy.
type Options struct {
	// Bucket is the target S3 bucket. Required.
	Bucket string

	// Prefix is prepended to every object key.
	Prefix string

	// CacheControl is set on fingerprinted objects. Fingerprinted names
	// never change content, so long max-age is safe.
	CacheControl string

	// Client overrides the S3 client. When nil the default AWS config
	// chain is used.
	Client ObjectPutter

	Logger zerolog.Logger
}

// Result summarizes a deploy.
type Result struct {
	Duration time.Duration
	Uploaded int
	Bytes    int64
}

// Deployer uploads build output to S3.
type Deployer struct {
	config  *config.Config
	options Options
	logger  zerolog.Logger
}

// New creates a deployer. The S3 client comes from the default AWS
// credential chain unless Options.Client overrides it.
func New(ctx context.Context, cfg *config.Config, options Options) (*Deployer, error) {
	if options.Client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.New("E501").WithDetail("AWS configuration could not be loaded").Wrap(err)
		}
		options.Client = s3.NewFromConfig(awsCfg)
	}
	if options.CacheControl == "" {
		options.CacheControl = "public, max-age=31536000, immutable"
	}
	return &Deployer{
		config:  cfg,
		options: options,
		logger:  options.Logger.With().Str("component", "deploy").Logger(),
	}, nil
}

// Deploy uploads everything under the build output directory. The
// manifest is uploaded last so readers never resolve names that are not
// in the bucket yet.
func (d *Deployer) Deploy(ctx context.Context) (*Result, error) {
	start := time.Now()

	outputDir := d.config.OutputPath()
	info, err := os.Stat(outputDir)
	if err != nil || !info.IsDir() {
		return nil, errors.New("E502").WithDetail("Missing " + outputDir)
	}

	var files []string
	err = filepath.Walk(outputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.New("E502").Wrap(err)
	}
	if len(files) == 0 {
		return nil, errors.New("E502").WithDetail(outputDir + " is empty")
	}

	// Manifest last.
	var manifestPath string
	ordered := files[:0]
	for _, path := range files {
		if filepath.Base(path) == "manifest.json" {
			manifestPath = path
			continue
		}
		ordered = append(ordered, path)
	}
	if manifestPath != "" {
		ordered = append(ordered, manifestPath)
	}

	result := &Result{}
	for _, path := range ordered {
		n, err := d.upload(ctx, outputDir, path)
		if err != nil {
			return nil, err
		}
		result.Uploaded++
		result.Bytes += n
	}

	result.Duration = time.Since(start)
	d.logger.Info().
		Int("objects", result.Uploaded).
		Int64("bytes", result.Bytes).
		Dur("duration", result.Duration).
		Msg("deploy complete")
	return result, nil
}

func (d *Deployer) upload(ctx context.Context, outputDir, path string) (int64, error) {
	rel, err := filepath.Rel(outputDir, path)
	if err != nil {
		return 0, err
	}
	key := d.options.Prefix + filepath.ToSlash(rel)

	f, err := os.Open(path)
	if err != nil {
		return 0, errors.New("E501").WithDetail(path).Wrap(err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, errors.New("E501").WithDetail(path).Wrap(err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(d.options.Bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(contentTypeFor(path)),
		ContentLength: aws.Int64(info.Size()),
	}
	if fingerprinted(path) {
		input.CacheControl = aws.String(d.options.CacheControl)
	}

	if _, err := d.options.Client.PutObject(ctx, input); err != nil {
		return 0, errors.New("E501").WithDetail(key).Wrap(err)
	}

	d.logger.Debug().Str("key", key).Int64("bytes", info.Size()).Msg("uploaded")
	return info.Size(), nil
}

// fingerprinted reports whether the file name carries a content hash
// segment, e.g. app.9f2c4a1b.js.
func fingerprinted(path string) bool {
	name := filepath.Base(path)
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return false
	}
	hash := parts[len(parts)-2]
	if len(hash) != 8 {
		return false
	}
	for _, r := range hash {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
