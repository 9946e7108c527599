// Package s3test provides an in-memory S3 API for tests of packages that
// store objects through pkg/storage/s3.
package s3test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/logflow/procmine/pkg/storage/s3"
)

// MemAPI implements s3.API over a map keyed by "bucket/key".
type MemAPI struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemAPI returns an empty store.
func NewMemAPI() *MemAPI {
	return &MemAPI{objects: make(map[string][]byte)}
}

// NewClient returns a client for bucket backed by a fresh MemAPI.
func NewClient(bucket string) (*s3.Client, *MemAPI) {
	api := NewMemAPI()
	return s3.NewWithAPI(s3.DefaultConfig(bucket, "us-east-1"), api), api
}

// Len returns the number of stored objects.
func (m *MemAPI) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Put stores an object directly.
func (m *MemAPI) Put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = append([]byte(nil), data...)
}

func (m *MemAPI) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *MemAPI) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.Put(aws.ToString(in.Bucket), aws.ToString(in.Key), data)
	return &awss3.PutObjectOutput{}, nil
}

func (m *MemAPI) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func (m *MemAPI) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket := aws.ToString(in.Bucket) + "/"
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, bucket+aws.ToString(in.Prefix)) {
			keys = append(keys, strings.TrimPrefix(k, bucket))
		}
	}
	sort.Strings(keys)
	out := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}
