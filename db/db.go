package db

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsphweid/harptab/notemap"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// DynamoSource serves harmonica tables stored one item per (type, key) in a
// DynamoDB table. Items are keyed by PK "<type>#<key>" and otherwise carry the
// same fields as the YAML tables.
type DynamoSource struct {
	Client dynamodbiface.DynamoDBAPI
	Table  string
	Logger *slog.Logger
}

// NewClient opens a DynamoDB client. An empty endpoint means the regular AWS
// endpoint for region; local development points it at dynamodb-local.
func NewClient(endpoint, region string) (dynamodbiface.DynamoDBAPI, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create a DynamoDB session: %w", err)
	}
	return dynamodb.New(sess), nil
}

func partitionKey(harpType, key string) string {
	return harpType + "#" + key
}

func (s *DynamoSource) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *DynamoSource) Load(harpType, key string) (*notemap.NoteMap, error) {
	harpType = strings.ToLower(strings.TrimSpace(harpType))
	key = notemap.NormalizeKey(key)
	pk := partitionKey(harpType, key)

	s.logger().Debug("db: loading harmonica table", "table", s.Table, "pk", pk)
	out, err := s.Client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(s.Table),
		Key: map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(pk)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error from DynamoDB: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, &notemap.UnknownMappingError{Type: harpType, Key: key}
	}

	var f notemap.File
	if err := dynamodbattribute.UnmarshalMap(out.Item, &f); err != nil {
		return nil, fmt.Errorf("decoding harmonica table %s: %w", pk, err)
	}
	return notemap.Build(f)
}

// List scans the table for the stored (type, key) pairs.
func (s *DynamoSource) List() ([]notemap.ID, error) {
	var res []notemap.ID
	input := &dynamodb.ScanInput{
		TableName:            aws.String(s.Table),
		ProjectionExpression: aws.String("#t, #k"),
		ExpressionAttributeNames: map[string]*string{
			"#t": aws.String("Type"),
			"#k": aws.String("Key"),
		},
	}
	err := s.Client.ScanPages(input, func(page *dynamodb.ScanOutput, last bool) bool {
		for _, item := range page.Items {
			var id notemap.ID
			if v := item["Type"]; v != nil && v.S != nil {
				id.Type = *v.S
			}
			if v := item["Key"]; v != nil && v.S != nil {
				id.Key = *v.S
			}
			res = append(res, id)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("error from DynamoDB: %w", err)
	}
	notemap.SortIDs(res)
	return res, nil
}

// Put stores f, replacing any table with the same type and key.
func (s *DynamoSource) Put(f notemap.File) error {
	if _, err := notemap.Build(f); err != nil {
		return err
	}
	item, err := dynamodbattribute.MarshalMap(f)
	if err != nil {
		return err
	}
	pk := partitionKey(strings.ToLower(f.Type), notemap.NormalizeKey(f.Key))
	item["PK"] = &dynamodb.AttributeValue{S: aws.String(pk)}

	s.logger().Info("db: storing harmonica table", "table", s.Table, "pk", pk)
	_, err = s.Client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(s.Table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("error from DynamoDB: %w", err)
	}
	return nil
}
