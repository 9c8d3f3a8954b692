// Package dynamodb implements catalog.Catalog on an Amazon DynamoDB table.
//
// Table schema:
//   - Partition key: namespace (string), typically the bucket and prefix
//   - Sort key: name (string), the blob name
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name matio-catalog \
//	  --attribute-definitions AttributeName=namespace,AttributeType=S AttributeName=name,AttributeType=S \
//	  --key-schema AttributeName=namespace,KeyType=HASH AttributeName=name,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/matio/catalog"
	"github.com/hupe1980/matio/codec"
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// Catalog stores entries of one namespace.
type Catalog struct {
	client    DDBClient
	tableName string
	namespace string
	codec     codec.Codec
}

var _ catalog.Catalog = (*Catalog)(nil)

// New returns a catalog over tableName. Record summaries are stored as a
// JSON string attribute.
func New(client DDBClient, tableName, namespace string) *Catalog {
	return &Catalog{
		client:    client,
		tableName: tableName,
		namespace: namespace,
		codec:     codec.Default,
	}
}

func (c *Catalog) Put(ctx context.Context, e catalog.Entry) error {
	if e.Name == "" {
		return errors.New("dynamodb catalog: empty entry name")
	}
	records, err := c.codec.Marshal(e.Records)
	if err != nil {
		return fmt.Errorf("dynamodb catalog: encode records: %w", err)
	}

	_, err = c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"namespace":  &types.AttributeValueMemberS{Value: c.namespace},
			"name":       &types.AttributeValueMemberS{Value: e.Name},
			"container":  &types.AttributeValueMemberBOOL{Value: e.Container},
			"count":      &types.AttributeValueMemberN{Value: strconv.Itoa(e.Count)},
			"size":       &types.AttributeValueMemberN{Value: strconv.FormatInt(e.Size, 10)},
			"checksum":   &types.AttributeValueMemberN{Value: strconv.FormatUint(uint64(e.Checksum), 10)},
			"created_at": &types.AttributeValueMemberS{Value: e.CreatedAt.UTC().Format(time.RFC3339Nano)},
			"records":    &types.AttributeValueMemberS{Value: string(records)},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamodb catalog: put %s: %w", e.Name, err)
	}
	return nil
}

func (c *Catalog) Get(ctx context.Context, name string) (catalog.Entry, error) {
	resp, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"namespace": &types.AttributeValueMemberS{Value: c.namespace},
			"name":      &types.AttributeValueMemberS{Value: name},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("dynamodb catalog: get %s: %w", name, err)
	}
	if len(resp.Item) == 0 {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	return c.decode(resp.Item)
}

// List pages through all entries whose name begins with prefix.
func (c *Catalog) List(ctx context.Context, prefix string) ([]catalog.Entry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("#ns = :ns"),
		ExpressionAttributeNames: map[string]string{
			"#ns": "namespace",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ns": &types.AttributeValueMemberS{Value: c.namespace},
		},
	}
	if prefix != "" {
		input.KeyConditionExpression = aws.String("#ns = :ns AND begins_with(#n, :p)")
		input.ExpressionAttributeNames["#n"] = "name"
		input.ExpressionAttributeValues[":p"] = &types.AttributeValueMemberS{Value: prefix}
	}

	var out []catalog.Entry
	paginator := dynamodb.NewQueryPaginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb catalog: query: %w", err)
		}
		for _, item := range page.Items {
			e, err := c.decode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Catalog) decode(item map[string]types.AttributeValue) (catalog.Entry, error) {
	var e catalog.Entry
	var err error

	if e.Name, err = stringAttr(item, "name"); err != nil {
		return e, err
	}
	if v, ok := item["container"].(*types.AttributeValueMemberBOOL); ok {
		e.Container = v.Value
	}
	count, err := intAttr(item, "count")
	if err != nil {
		return e, err
	}
	e.Count = int(count)
	if e.Size, err = intAttr(item, "size"); err != nil {
		return e, err
	}
	sum, err := intAttr(item, "checksum")
	if err != nil {
		return e, err
	}
	e.Checksum = uint32(sum)

	created, err := stringAttr(item, "created_at")
	if err != nil {
		return e, err
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return e, fmt.Errorf("dynamodb catalog: created_at: %w", err)
	}

	records, err := stringAttr(item, "records")
	if err != nil {
		return e, err
	}
	if err := c.codec.Unmarshal([]byte(records), &e.Records); err != nil {
		return e, fmt.Errorf("dynamodb catalog: decode records: %w", err)
	}
	return e, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, error) {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("dynamodb catalog: invalid %s attribute", name)
	}
	return v.Value, nil
}

func intAttr(item map[string]types.AttributeValue, name string) (int64, error) {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("dynamodb catalog: invalid %s attribute", name)
	}
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("dynamodb catalog: parse %s: %w", name, err)
	}
	return n, nil
}
