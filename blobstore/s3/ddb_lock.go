package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/hupe1980/nmcp/lock"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ lock.Verifier = (*DDBLock)(nil)

const (
	attrLockID  = "lock_id"
	attrOwner   = "owner"
	attrExpires = "expires_at"
)

// DDBLock implements lock.Locker with a DynamoDB lease. S3 has no
// compare-and-swap, so the snapshot read-modify-write of a shared dataset is
// serialized by a conditional write on one item per dataset.
//
// A lease is held by a random owner token until Unlock or until it expires.
// An expired lease may be taken over by another worker. Verify extends a
// held lease and must succeed before each guarded write.
//
// Table schema:
//   - Partition key: lock_id (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name nmcp-locks \
//	  --attribute-definitions AttributeName=lock_id,AttributeType=S \
//	  --key-schema AttributeName=lock_id,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
type DDBLock struct {
	client DDBClient
	table  string
	name   string
	ttl    time.Duration
	retry  time.Duration
	now    func() time.Time

	local *lock.Mutex
	owner string
}

// DDBLockOption configures a DDBLock.
type DDBLockOption func(*DDBLock)

// WithLeaseDuration sets how long a lease stays valid without Unlock.
// Default: 1 minute.
func WithLeaseDuration(d time.Duration) DDBLockOption {
	return func(l *DDBLock) { l.ttl = d }
}

// WithRetryInterval sets the delay between acquisition attempts.
// Default: 250ms.
func WithRetryInterval(d time.Duration) DDBLockOption {
	return func(l *DDBLock) { l.retry = d }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) DDBLockOption {
	return func(l *DDBLock) { l.now = now }
}

// NewDDBLock creates a lease lock named name in table.
func NewDDBLock(client DDBClient, table, name string, opts ...DDBLockOption) *DDBLock {
	l := &DDBLock{
		client: client,
		table:  table,
		name:   name,
		ttl:    time.Minute,
		retry:  250 * time.Millisecond,
		now:    time.Now,
		local:  lock.NewMutex(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewDDBClient creates a DynamoDB client from the default AWS credential chain.
func NewDDBClient(ctx context.Context, region string) (*dynamodb.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

// Lock implements lock.Locker.
func (l *DDBLock) Lock(ctx context.Context) error {
	if err := l.local.Lock(ctx); err != nil {
		return err
	}

	owner := uuid.NewString()

	for {
		ok, err := l.tryAcquire(ctx, owner)
		if err != nil {
			_ = l.local.Unlock(ctx)
			return err
		}
		if ok {
			l.owner = owner
			return nil
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = l.local.Unlock(ctx)
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *DDBLock) tryAcquire(ctx context.Context, owner string) (bool, error) {
	now := l.now()

	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			attrLockID:  &types.AttributeValueMemberS{Value: l.name},
			attrOwner:   &types.AttributeValueMemberS{Value: owner},
			attrExpires: &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(l.ttl).UnixMilli(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(#id) OR #exp < :now"),
		ExpressionAttributeNames: map[string]string{
			"#id":  attrLockID,
			"#exp": attrExpires,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	})
	if err == nil {
		return true, nil
	}

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return false, nil
	}
	return false, fmt.Errorf("s3: acquire lease %q: %w", l.name, err)
}

// Verify implements lock.Verifier. It extends the lease by the lease
// duration if this lock still owns it and it has not expired, and returns
// lock.ErrLockLost otherwise.
func (l *DDBLock) Verify(ctx context.Context) error {
	if l.owner == "" {
		return lock.ErrNotLocked
	}

	now := l.now()

	_, err := l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(l.table),
		Key: map[string]types.AttributeValue{
			attrLockID: &types.AttributeValueMemberS{Value: l.name},
		},
		UpdateExpression:    aws.String("SET #exp = :exp"),
		ConditionExpression: aws.String("#owner = :owner AND #exp >= :now"),
		ExpressionAttributeNames: map[string]string{
			"#owner": attrOwner,
			"#exp":   attrExpires,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: l.owner},
			":now":   &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
			":exp":   &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(l.ttl).UnixMilli(), 10)},
		},
	})
	if err == nil {
		return nil
	}

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return lock.ErrLockLost
	}
	return fmt.Errorf("s3: renew lease %q: %w", l.name, err)
}

// Unlock implements lock.Locker. It returns lock.ErrLockLost when the lease
// expired and another owner took it.
func (l *DDBLock) Unlock(ctx context.Context) error {
	if l.owner == "" {
		return lock.ErrNotLocked
	}

	owner := l.owner
	l.owner = ""
	defer func() { _ = l.local.Unlock(ctx) }()

	_, err := l.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(l.table),
		Key: map[string]types.AttributeValue{
			attrLockID: &types.AttributeValueMemberS{Value: l.name},
		},
		ConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": attrOwner,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err == nil {
		return nil
	}

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return lock.ErrLockLost
	}
	return fmt.Errorf("s3: release lease %q: %w", l.name, err)
}
