package manifest

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/nestroute/internal/errors"
)

// maxManifestSize bounds what Load reads from any source.
const maxManifestSize = 4 << 20

// ObjectGetter is the subset of *s3.Client used to fetch manifests.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// LoadOptions configures Load.
type LoadOptions struct {
	// S3 fetches s3:// sources. When nil, Load builds a client from
	// Region, Endpoint and the AWS_* environment variables.
	S3 ObjectGetter

	Region   string
	Endpoint string
}

// Load reads and parses a manifest from a file path or an s3://bucket/key
// URL.
func Load(ctx context.Context, source string, opts LoadOptions) (*Manifest, error) {
	data, err := read(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	return Parse(data, source)
}

func read(ctx context.Context, source string, opts LoadOptions) ([]byte, error) {
	if !strings.Contains(source, "://") {
		return readFile(source)
	}

	u, err := url.Parse(source)
	if err != nil || u.Scheme != "s3" || u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return nil, errors.New("R207").
			WithDetail(source + " is not a file path or s3://bucket/key URL")
	}

	client := opts.S3
	if client == nil {
		client = NewS3Client(opts.Region, opts.Endpoint)
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(strings.TrimPrefix(u.Path, "/")),
	})
	if err != nil {
		return nil, errors.New("R206").
			WithDetail("GetObject " + source + " failed").
			WithSuggestion("Check manifest.region and the AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY environment").
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxManifestSize+1))
	if err != nil {
		return nil, errors.New("R206").Wrap(err)
	}
	if len(data) > maxManifestSize {
		return nil, errors.New("R206").WithDetail(source + " exceeds the 4 MiB manifest limit")
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		rerr := errors.New("R201").Wrap(err)
		if os.IsNotExist(err) {
			rerr.WithSuggestion("Set manifest.source in routerd.json or pass --manifest")
		}
		return nil, rerr
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxManifestSize+1))
	if err != nil {
		return nil, errors.New("R201").Wrap(err)
	}
	if len(data) > maxManifestSize {
		return nil, errors.New("R201").WithDetail(path + " exceeds the 4 MiB manifest limit")
	}
	return data, nil
}

// NewS3Client creates an S3 client using static credentials from the
// AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// environment variables. A non-empty endpoint selects an S3-compatible
// store with path-style addressing.
func NewS3Client(region, endpoint string) *s3.Client {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "EnvironmentVariables",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errors.New("R206").WithDetail("AWS credentials are not set in the environment")
	}
	return creds, nil
}
