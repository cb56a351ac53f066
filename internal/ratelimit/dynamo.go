package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

// DynamoAPI is the slice of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type cooldownRecord struct {
	ClientID  string `dynamodbav:"clientId"`
	LastAt    int64  `dynamodbav:"lastAt"`
	ExpiresAt int64  `dynamodbav:"expiresAt"`
}

// DynamoStore keeps cooldowns in a DynamoDB table keyed by clientId. The
// conditional put only succeeds when no record exists or the last accepted
// submission is older than the cooldown, so blocked calls write nothing.
// expiresAt is meant for the table's TTL setting.
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	cooldown  time.Duration
	now       func() time.Time
	logger    *logging.Logger
}

// NewDynamoStore creates a DynamoDB-backed limiter.
func NewDynamoStore(client DynamoAPI, tableName string, cooldown time.Duration, logger *logging.Logger) *DynamoStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		cooldown:  cooldown,
		now:       time.Now,
		logger:    logger,
	}
}

// Allow fails open on any error other than a failed condition.
func (s *DynamoStore) Allow(ctx context.Context, id string) bool {
	if s == nil || s.client == nil || s.tableName == "" {
		return true
	}
	now := s.now()
	item, err := attributevalue.MarshalMap(cooldownRecord{
		ClientID:  id,
		LastAt:    now.UnixMilli(),
		ExpiresAt: now.Add(s.cooldown).Add(time.Minute).Unix(),
	})
	if err != nil {
		s.logger.Warn("ratelimit: failed to marshal cooldown record, allowing request", "error", err, "client_id", id)
		return true
	}

	cutoff := now.Add(-s.cooldown).UnixMilli()
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(clientId) OR lastAt < :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff, 10)},
		},
	})
	if err == nil {
		return true
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return false
	}
	s.logger.Warn("ratelimit: dynamodb unavailable, allowing request", "error", err, "client_id", id)
	return true
}

var _ Limiter = (*DynamoStore)(nil)
