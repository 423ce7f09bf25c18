package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
)

// ObjectPutter is the part of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ReceiptArchive struct {
	client ObjectPutter
	bucket string
	prefix string
}

func Connect(ctx context.Context, region, bucket, prefix string) (*ReceiptArchive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewReceiptArchive(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func NewReceiptArchive(client ObjectPutter, bucket, prefix string) *ReceiptArchive {
	return &ReceiptArchive{client: client, bucket: bucket, prefix: prefix}
}

type receiptLine struct {
	Name     string                  `json:"name"`
	Quantity int                     `json:"quantity"`
	Price    decimal.Decimal         `json:"price"`
	Options  []domain.SelectedOption `json:"options,omitempty"`
}

type receipt struct {
	OrderNumber    string          `json:"orderNumber"`
	Type           string          `json:"type"`
	TableNumber    *string         `json:"tableNumber,omitempty"`
	CustomerName   *string         `json:"customerName,omitempty"`
	Items          []receiptLine   `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	GiftCardCode   *string         `json:"giftCardCode,omitempty"`
	GiftCardAmount decimal.Decimal `json:"giftCardAmount"`
	Total          decimal.Decimal `json:"total"`
	PointsEarned   int             `json:"pointsEarned"`
	PlacedAt       time.Time       `json:"placedAt"`
}

// Key is <prefix>/YYYY/MM/DD/<order number>.json.
func (a *ReceiptArchive) Key(order *domain.Order) string {
	return path.Join(a.prefix, order.CreatedAt.UTC().Format("2006/01/02"), order.Number+".json")
}

func (a *ReceiptArchive) StoreReceipt(ctx context.Context, order *domain.Order) (string, error) {
	r := receipt{
		OrderNumber:    order.Number,
		Type:           string(order.Type),
		TableNumber:    order.TableNumber,
		CustomerName:   order.CustomerName,
		Subtotal:       order.Subtotal,
		Tax:            order.Tax,
		GiftCardCode:   order.GiftCardCode,
		GiftCardAmount: order.GiftCardAmount,
		Total:          order.Total,
		PointsEarned:   order.PointsEarned,
		PlacedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		r.Items = append(r.Items, receiptLine{Name: item.Name, Quantity: item.Quantity, Price: item.Price, Options: item.Options})
	}

	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal receipt: %w", err)
	}

	key := a.Key(order)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload receipt to S3: %w", err)
	}
	return key, nil
}
