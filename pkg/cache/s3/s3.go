// Package s3 persists cached graphs as JSON objects in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/litgraph/backend/pkg/graph"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const DefaultPrefix = "graphs"

type objectAPI interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Cache is a cache.ResultCache storing one object per book at
// {prefix}/{id}.json.
type Cache struct {
	client objectAPI
	bucket string
	prefix string
}

// NewClientParams configures the S3 client. Endpoint may point at MinIO or
// any other S3-compatible service; path-style addressing is always used.
type NewClientParams struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func NewClient(ctx context.Context, params NewClientParams) (*awss3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(params.Region),
	}
	if params.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(params.Endpoint))
	}
	if params.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.UsePathStyle = true
	}), nil
}

func New(client *awss3.Client, bucket, prefix string) *Cache {
	return newCache(client, bucket, prefix)
}

func newCache(client objectAPI, bucket, prefix string) *Cache {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Cache{client: client, bucket: bucket, prefix: prefix}
}

func (c *Cache) key(id int64) string {
	return c.prefix + "/" + strconv.FormatInt(id, 10) + ".json"
}

func (c *Cache) Get(ctx context.Context, id int64) (*graph.Graph, bool, error) {
	out, err := c.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get graph %d from S3: %w", id, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read graph %d: %w", id, err)
	}
	var g graph.Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, false, fmt.Errorf("decode graph %d: %w", id, err)
	}
	return &g, true, nil
}

// Put writes the graph with If-None-Match so an existing object is never
// overwritten.
func (c *Cache) Put(ctx context.Context, id int64, g *graph.Graph) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode graph %d: %w", id, err)
	}

	_, err = c.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(c.key(id)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return nil
		}
		return fmt.Errorf("put graph %d to S3: %w", id, err)
	}
	return nil
}
