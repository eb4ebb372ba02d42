package s3

import (
	"context"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

type Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	EndPoint  string
	Path      string
	Region    string
}

type Client struct {
	Client *awss3.Client
	Config *Config
}

// NewClient builds an S3 client. Without an access key the default AWS credential chain is used;
// EndPoint points the client at an S3 compatible service instead of AWS.
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	options := []func(*s3config.LoadOptions) error{}
	if config.Region != "" {
		options = append(options, s3config.WithRegion(config.Region))
	}
	if config.EndPoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...any) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           config.EndPoint,
				SigningRegion: config.Region,
			}, nil
		})
		options = append(options, s3config.WithEndpointResolverWithOptions(resolver))
	}
	if config.AccessKey != "" {
		options = append(options, s3config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, "")))
	}

	awsConfig, err := s3config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}

	client := awss3.NewFromConfig(awsConfig, func(o *awss3.Options) {
		// S3 compatible services rarely support virtual-hosted buckets.
		o.UsePathStyle = config.EndPoint != ""
	})

	return &Client{
		Client: client,
		Config: config,
	}, nil
}

// ObjectKey returns the key a file is stored under.
func (client *Client) ObjectKey(filename string) string {
	return path.Join(client.Config.Path, filename)
}

// UploadFile uploads src and returns the location of the object.
func (client *Client) UploadFile(ctx context.Context, filename string, fileType string, src io.Reader) (string, error) {
	uploader := manager.NewUploader(client.Client)
	uploadOutput, err := uploader.Upload(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(client.Config.Bucket),
		Key:         aws.String(client.ObjectKey(filename)),
		Body:        src,
		ContentType: aws.String(fileType),
	})
	if err != nil {
		return "", err
	}

	return uploadOutput.Location, nil
}
