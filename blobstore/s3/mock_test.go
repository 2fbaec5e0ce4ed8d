package s3

import (
	"context"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/mock"
)

// MockS3Client is a testify mock of Client.
type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) UploadPart(ctx context.Context, params *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.UploadPartOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.CreateMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.CompleteMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.AbortMultipartUploadOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return out, args.Error(1)
}

// mockDDBClient is an in-memory DynamoDB table that evaluates the lease
// conditions used by DDBLock.
type mockDDBClient struct {
	mu    sync.Mutex
	items map[string]map[string]ddbtypes.AttributeValue
	err   error
	puts  int
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]ddbtypes.AttributeValue)}
}

func (m *mockDDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.err != nil {
		return nil, m.err
	}

	id := params.Item[attrLockID].(*ddbtypes.AttributeValueMemberS).Value
	if existing, ok := m.items[id]; ok {
		now := numberAttr(params.ExpressionAttributeValues[":now"])
		if numberAttr(existing[attrExpires]) >= now {
			return nil, &ddbtypes.ConditionalCheckFailedException{Message: aws.String("lease held")}
		}
	}

	m.items[id] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	id := params.Key[attrLockID].(*ddbtypes.AttributeValueMemberS).Value
	want := params.ExpressionAttributeValues[":owner"].(*ddbtypes.AttributeValueMemberS).Value
	now := numberAttr(params.ExpressionAttributeValues[":now"])

	existing, ok := m.items[id]
	if !ok || existing[attrOwner].(*ddbtypes.AttributeValueMemberS).Value != want || numberAttr(existing[attrExpires]) < now {
		return nil, &ddbtypes.ConditionalCheckFailedException{Message: aws.String("lease lost")}
	}

	item := make(map[string]ddbtypes.AttributeValue, len(existing))
	for k, v := range existing {
		item[k] = v
	}
	item[attrExpires] = params.ExpressionAttributeValues[":exp"]
	m.items[id] = item
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockDDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	id := params.Key[attrLockID].(*ddbtypes.AttributeValueMemberS).Value
	want := params.ExpressionAttributeValues[":owner"].(*ddbtypes.AttributeValueMemberS).Value

	existing, ok := m.items[id]
	if !ok || existing[attrOwner].(*ddbtypes.AttributeValueMemberS).Value != want {
		return nil, &ddbtypes.ConditionalCheckFailedException{Message: aws.String("not owner")}
	}

	delete(m.items, id)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDDBClient) held(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	return ok
}

func numberAttr(v ddbtypes.AttributeValue) int64 {
	n, _ := strconv.ParseInt(v.(*ddbtypes.AttributeValueMemberN).Value, 10, 64)
	return n
}
