package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/store"
)

// maxTransactItems is the DynamoDB limit on actions per TransactWriteItems call.
const maxTransactItems = 100

const conditionalCheckFailed = "ConditionalCheckFailed"

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(
		ctx context.Context,
		params *dynamodb.TransactWriteItemsInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.TransactWriteItemsOutput, error)
}

// Config names the table and, optionally, where to reach it.
type Config struct {
	TableName string
	Region    string
	Endpoint  string // e.g. DynamoDB Local; empty means the AWS default
}

// NewClient builds a DynamoDB client from the default AWS credential chain.
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Store implements store.Store on DynamoDB.
type Store struct {
	client Client
	table  string
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates a Store over an existing client.
func NewStore(client Client, tableName string, logger *slog.Logger) *Store {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("client cannot be nil")
	}
	if tableName == "" {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("table name cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		client: client,
		table:  tableName,
		logger: logger.With(slog.String("component", "dynamo_store"), slog.String("table", tableName)),
	}
}

// LoadItems implements store.ItemStore.
func (s *Store) LoadItems(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryItem, error) {
	var records []itemRecord
	if err := s.queryPartition(ctx, userID, itemPrefix, nil, &records); err != nil {
		s.logger.Error("failed to load items",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("item", "load", "failed to query items", err)
	}

	items := make([]*domain.MemoryItem, 0, len(records))
	for _, r := range records {
		item, err := r.toDomain()
		if err != nil {
			return nil, store.NewStoreError("item", "load", "corrupt item record", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// SaveItemAndAppendEvent implements store.ItemStore with one transaction.
func (s *Store) SaveItemAndAppendEvent(
	ctx context.Context,
	userID uuid.UUID,
	item *domain.MemoryItem,
	event *domain.ReviewEvent,
) error {
	if err := store.CheckReviewWrite(userID, item, event); err != nil {
		return err
	}

	itemPut, err := s.versionedPut(item)
	if err != nil {
		return store.NewStoreError("item", "save", "failed to build item write", err)
	}
	eventPut, err := s.newPut(toEventRecord(event))
	if err != nil {
		return store.NewStoreError("review_event", "save", "failed to build event write", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{{Put: itemPut}, {Put: eventPut}},
	})
	if err == nil {
		return nil
	}

	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		reasons := canceled.CancellationReasons
		if failedCondition(reasons, 0) {
			if len(reasons[0].Item) == 0 {
				return store.ErrItemNotFound
			}
			return store.NewStoreError("item", "save", "version mismatch", store.ErrConcurrentUpdate)
		}
		if failedCondition(reasons, 1) {
			return store.NewStoreError("review_event", "save", "event already recorded", store.ErrDuplicate)
		}
	}

	var conflict *types.TransactionConflictException
	if errors.As(err, &conflict) {
		return store.NewStoreError("item", "save", "transaction conflict", store.ErrConcurrentUpdate)
	}

	s.logger.Error("failed to save review",
		slog.String("user_id", userID.String()),
		slog.String("item_id", item.ID.String()),
		slog.String("error", err.Error()))
	return store.NewStoreError("item", "save", "failed to save item and event", err)
}

// CreateItems implements store.ItemSeeder. Batches above the transaction
// limit are written in chunks of maxTransactItems; each chunk is atomic.
func (s *Store) CreateItems(ctx context.Context, items []*domain.MemoryItem) error {
	if err := store.CheckSeed(items); err != nil {
		return err
	}

	for start := 0; start < len(items); start += maxTransactItems {
		end := min(start+maxTransactItems, len(items))

		writes := make([]types.TransactWriteItem, 0, end-start)
		for _, item := range items[start:end] {
			put, err := s.newPut(toItemRecord(item))
			if err != nil {
				return store.NewStoreError("item", "create", "failed to build item write", err)
			}
			writes = append(writes, types.TransactWriteItem{Put: put})
		}

		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
		if err != nil {
			var canceled *types.TransactionCanceledException
			if errors.As(err, &canceled) {
				for i := range canceled.CancellationReasons {
					if failedCondition(canceled.CancellationReasons, i) {
						return store.ErrItemExists
					}
				}
			}
			return store.NewStoreError("item", "create", "failed to insert items", err)
		}
	}

	s.logger.Debug("items created", slog.Int("count", len(items)))
	return nil
}

// ListEvents implements store.EventReader.
func (s *Store) ListEvents(ctx context.Context, userID, itemID uuid.UUID) ([]domain.ReviewEvent, error) {
	var filter *expression.ConditionBuilder
	if itemID != uuid.Nil {
		f := expression.Name("ItemID").Equal(expression.Value(itemID.String()))
		filter = &f
	}

	var records []eventRecord
	if err := s.queryPartition(ctx, userID, eventPrefix, filter, &records); err != nil {
		return nil, store.NewStoreError("review_event", "list", "failed to query events", err)
	}

	events := make([]domain.ReviewEvent, 0, len(records))
	for _, r := range records {
		event, err := r.toDomain()
		if err != nil {
			return nil, store.NewStoreError("review_event", "list", "corrupt event record", err)
		}
		events = append(events, event)
	}
	return events, nil
}

// queryPartition reads every record of the user's partition whose sort key
// starts with prefix, following pagination, and unmarshals into out.
func (s *Store) queryPartition(
	ctx context.Context,
	userID uuid.UUID,
	prefix string,
	filter *expression.ConditionBuilder,
	out any,
) error {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.KeyBeginsWith(expression.Key("SK"), prefix))

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build query expression: %w", err)
	}

	var collected []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.table),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return err
		}
		collected = append(collected, resp.Items...)
		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	if err := attributevalue.UnmarshalListOfMaps(collected, out); err != nil {
		return fmt.Errorf("failed to unmarshal records: %w", err)
	}
	return nil
}

// versionedPut replaces the stored item only if it exists at the version the
// update was computed from.
func (s *Store) versionedPut(item *domain.MemoryItem) (*types.Put, error) {
	av, err := attributevalue.MarshalMap(toItemRecord(item))
	if err != nil {
		return nil, err
	}

	cond := expression.AttributeExists(expression.Name("PK")).
		And(expression.Name("Version").Equal(expression.Value(item.Version - 1)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, err
	}

	return &types.Put{
		TableName:                           aws.String(s.table),
		Item:                                av,
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	}, nil
}

// newPut inserts a record that must not exist yet.
func (s *Store) newPut(record any) (*types.Put, error) {
	av, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return nil, err
	}

	return &types.Put{
		TableName:                aws.String(s.table),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	}, nil
}

func failedCondition(reasons []types.CancellationReason, i int) bool {
	return i < len(reasons) && aws.ToString(reasons[i].Code) == conditionalCheckFailed
}
