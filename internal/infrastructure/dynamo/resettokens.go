package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/planbana/go-api/internal/domain"
)

// ResetTokenRepo stores password-reset link tokens.
// PK: token. expires_at is a native DynamoDB TTL, so stale tokens age out
// without a sweeper.
type ResetTokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewResetTokenRepo(client *dynamodb.Client, tableName string) *ResetTokenRepo {
	return &ResetTokenRepo{client: client, tableName: tableName}
}

func (r *ResetTokenRepo) Put(ctx context.Context, t *domain.PasswordResetToken) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal reset token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ResetTokenRepo) Get(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("reset token not found: %w", domain.ErrNotFound)
	}
	var t domain.PasswordResetToken
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ResetTokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", token),
	})
	return err
}
