package keys

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/identity/internal/common"
	"github.com/dmitrijs2005/identity/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func TestS3Storage_ExistsReadWrite(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := &S3Storage{client: fake, bucket: "keys"}

	ok, err := s.Exists(ctx, "access.key")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read(ctx, "access.key")
	assert.True(t, errors.Is(err, common.ErrorNotFound))

	require.NoError(t, s.Write(ctx, "access.key", []byte("pem"), true))

	ok, err = s.Exists(ctx, "access.key")
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := s.Read(ctx, "access.key")
	require.NoError(t, err)
	assert.Equal(t, "pem", string(b))
}

func TestS3Storage_ExistsPropagatesOtherErrors(t *testing.T) {
	fake := newFakeS3()
	fake.headErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "nope"}
	s := &S3Storage{client: fake, bucket: "keys"}

	_, err := s.Exists(context.Background(), "access.key")
	require.Error(t, err)

	fake.headErr = &smithy.GenericAPIError{Code: "NotFound"}
	ok, err := s.Exists(context.Background(), "access.key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3Storage_BacksKeyManager(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := &S3Storage{client: fake, bucket: "keys"}

	m, err := NewManager(s, Config{Pairs: testPairs("identity"), Bits: testBits}, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, m.Provision(ctx))
	assert.Len(t, fake.objects, 6)

	restarted, err := NewManager(s, Config{Pairs: testPairs("identity"), Bits: testBits}, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, restarted.Warm(ctx))
}

func TestNewS3Storage(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadDefaultAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	fake := newFakeS3()
	var opts s3.Options
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		var lo config.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{Region: lo.Region}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		for _, fn := range optFns {
			fn(&opts)
		}
		return fake
	}

	s, err := NewS3Storage(context.Background(), S3Config{
		RootUser: "admin", RootPassword: "secret", Bucket: "keys",
		Region: "us-east-1", BaseEndpoint: "http://127.0.0.1:9000/",
	})
	require.NoError(t, err)
	assert.Equal(t, "keys", s.bucket)
	assert.Equal(t, "http://127.0.0.1:9000/", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)

	_, err = NewS3Storage(context.Background(), S3Config{Region: "us-east-1"})
	assert.True(t, errors.Is(err, common.ErrorInvalidArgument))

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}
	_, err = NewS3Storage(context.Background(), S3Config{Bucket: "keys"})
	require.Error(t, err)
}
