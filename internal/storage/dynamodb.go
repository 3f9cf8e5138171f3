package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// DynamoDBStore implements Store using AWS DynamoDB. The conditional status
// update maps onto a PutItem ConditionExpression, so the check and the write
// are a single atomic operation on the server side.
type DynamoDBStore struct {
	client *dynamodb.Client
	config Config
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg Config, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Backend == BackendDynamoLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.DynamoRegion,
			BaseEndpoint: aws.String(cfg.DynamoEndpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create tables in local mode
	if cfg.Backend == BackendDynamoLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("backend", string(cfg.Backend)).
		Str("region", cfg.DynamoRegion).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) CreateCallRequest(ctx context.Context, call types.CallRequest) error {
	item, err := attributevalue.MarshalMap(call)
	if err != nil {
		return fmt.Errorf("failed to marshal call request: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.CallsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(ID)"),
	})
	if err != nil {
		return fmt.Errorf("failed to create call request: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) GetCallRequest(ctx context.Context, callID string) (*types.CallRequest, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.CallsTable),
		Key: map[string]dbtypes.AttributeValue{
			"ID": &dbtypes.AttributeValueMemberS{Value: callID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get call request: %w", err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var call types.CallRequest
	if err := attributevalue.UnmarshalMap(result.Item, &call); err != nil {
		return nil, fmt.Errorf("failed to unmarshal call request: %w", err)
	}
	return &call, nil
}

func (s *DynamoDBStore) UpdateCallRequest(ctx context.Context, call types.CallRequest) error {
	item, err := attributevalue.MarshalMap(call)
	if err != nil {
		return fmt.Errorf("failed to marshal call request: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.CallsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(ID)"),
	})
	if err != nil {
		var ccf *dbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update call request: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) UpdateCallRequestIfStatus(ctx context.Context, call types.CallRequest, expect types.CallStatus) error {
	item, err := attributevalue.MarshalMap(call)
	if err != nil {
		return fmt.Errorf("failed to marshal call request: %w", err)
	}

	cond := expression.Name("Status").Equal(expression.Value(string(expect)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.config.CallsTable),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *dbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// The condition also fails when the item is gone; look it up so
			// callers can tell the two apart.
			if _, getErr := s.GetCallRequest(ctx, call.ID); getErr != nil {
				return ErrNotFound
			}
			return ErrConditionFailed
		}
		return fmt.Errorf("failed conditional update of call request: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) DeleteCallRequest(ctx context.Context, callID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.CallsTable),
		Key: map[string]dbtypes.AttributeValue{
			"ID": &dbtypes.AttributeValueMemberS{Value: callID},
		},
		ConditionExpression: aws.String("attribute_exists(ID)"),
	})
	if err != nil {
		var ccf *dbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete call request: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) ListCallRequestsByStatus(ctx context.Context, statuses ...types.CallStatus) ([]types.CallRequest, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.config.CallsTable)}

	if len(statuses) > 0 {
		values := make([]expression.OperandBuilder, 0, len(statuses))
		for _, st := range statuses {
			values = append(values, expression.Value(string(st)))
		}
		var filter expression.ConditionBuilder
		if len(values) == 1 {
			filter = expression.Name("Status").Equal(values[0])
		} else {
			filter = expression.Name("Status").In(values[0], values[1:]...)
		}
		expr, err := expression.NewBuilder().WithFilter(filter).Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	var calls []types.CallRequest
	for {
		result, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call requests: %w", err)
		}

		var page []types.CallRequest
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal call requests: %w", err)
		}
		calls = append(calls, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return calls, nil
}

func (s *DynamoDBStore) SaveMessage(ctx context.Context, msg types.ChatMessage) error {
	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.MessagesTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) ListMessagesForConnection(ctx context.Context, connID string) ([]types.ChatMessage, error) {
	keyCond := expression.Key("ConnectionID").Equal(expression.Value(connID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.MessagesTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	var messages []types.ChatMessage
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return messages, nil
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendDynamoLocal, BackendDynamoAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	case BackendPostgres:
		pool, err := NewPostgresPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool, logger), nil
	default:
		logger.Info().Msg("durable storage disabled, using in-memory store")
		return NewMemoryStore(), nil
	}
}
