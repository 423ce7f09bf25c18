package s3

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePutter struct {
	input *s3.PutObjectInput
	body  []byte
}

func (c *capturePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	c.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestStoreReceipt(t *testing.T) {
	putter := &capturePutter{}
	archive := NewReceiptArchive(putter, "cafe-receipts", "receipts")

	table := "7"
	order := &domain.Order{
		Number: "ORD_20261015_0042", Type: domain.OrderTypeDineIn, TableNumber: &table,
		Items:    []domain.OrderItem{{Name: "Latte", Quantity: 2, Price: decimal.RequireFromString("6.75")}},
		Subtotal: decimal.RequireFromString("13.50"), Tax: decimal.RequireFromString("1.08"),
		Total:     decimal.RequireFromString("14.58"),
		CreatedAt: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
	}

	key, err := archive.StoreReceipt(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "receipts/2026/10/15/ORD_20261015_0042.json", key)
	assert.Equal(t, "cafe-receipts", aws.ToString(putter.input.Bucket))
	assert.Equal(t, key, aws.ToString(putter.input.Key))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(putter.body, &got))
	assert.Equal(t, "ORD_20261015_0042", got["orderNumber"])
	assert.Equal(t, "14.58", got["total"])
	assert.Equal(t, "7", got["tableNumber"])
}
