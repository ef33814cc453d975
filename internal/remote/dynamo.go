package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/abrezinsky/picklecup/internal/config"
	"github.com/abrezinsky/picklecup/internal/models"
)

// ItemAPI is the part of the DynamoDB client the store uses.
type ItemAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type snapshotItem struct {
	ID        string `dynamodbav:"id"`
	Data      string `dynamodbav:"data"`
	UpdatedAt string `dynamodbav:"updatedAt"`
}

// DynamoStore keeps the snapshot as a JSON attribute of one item keyed by "id".
type DynamoStore struct {
	api   ItemAPI
	table string
	now   func() time.Time
}

func NewDynamoStore(ctx context.Context, cfg config.Remote) (*DynamoStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.DynamoRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.DynamoRegion))
	}
	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(sdkCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	})
	return NewDynamoStoreWithAPI(client, cfg.DynamoTable), nil
}

func NewDynamoStoreWithAPI(api ItemAPI, table string) *DynamoStore {
	return &DynamoStore{api: api, table: table, now: time.Now}
}

func (s *DynamoStore) Load(ctx context.Context) (*models.Tournament, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: SnapshotKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", s.table, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return decode([]byte(item.Data))
}

func (s *DynamoStore) Save(ctx context.Context, t *models.Tournament) error {
	data, err := encode(t)
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(snapshotItem{
		ID:        SnapshotKey,
		Data:      string(data),
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put item in table '%s': %w", s.table, err)
	}
	return nil
}

func (s *DynamoStore) Mode() string { return ModeRealDB }
func (s *DynamoStore) Name() string { return "dynamodb" }
