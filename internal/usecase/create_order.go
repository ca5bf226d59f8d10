package usecase

import (
	"context"
	"errors"
	"time"

	domain "github.com/aq2208/payment-api/internal/entity"
	"github.com/aq2208/payment-api/internal/logging"
)

type CreateOrderOutput struct {
	OrderNo string
	CodeURL string
}

// CreateOrder opens (or reuses) a PENDING order for a product and asks
// the gateway for a payment intent. Reuse is keyed by product: at most
// one open order per product exists at a time, so a double-clicked buy
// button lands on the same order and QR code.
type CreateOrder struct {
	orders   OrderRepo
	products ProductRepo
	gw       GatewayClient
}

func NewCreateOrder(orders OrderRepo, products ProductRepo, gw GatewayClient) *CreateOrder {
	return &CreateOrder{orders: orders, products: products, gw: gw}
}

func (uc *CreateOrder) Execute(ctx context.Context, productID int64) (CreateOrderOutput, error) {
	l := logging.FromCtx(ctx)

	order, err := uc.orders.GetPendingByProduct(ctx, productID)
	if err != nil {
		return CreateOrderOutput{}, err
	}
	if order != nil && order.CodeURL != "" {
		l.Info("reusing open order", "order_no", order.OrderNo)
		return CreateOrderOutput{OrderNo: order.OrderNo, CodeURL: order.CodeURL}, nil
	}

	if order == nil {
		product, err := uc.products.GetByID(ctx, productID)
		if err != nil {
			return CreateOrderOutput{}, err
		}
		if product == nil {
			return CreateOrderOutput{}, ErrProductNotFound
		}

		order = &domain.Order{
			OrderNo:   NewOrderNo(),
			ProductID: product.ID,
			Title:     product.Title,
			TotalFee:  product.Price,
			Status:    domain.StatusPending,
			CreatedAt: time.Now().UTC(),
		}
		if err := uc.orders.Create(ctx, order); err != nil {
			return CreateOrderOutput{}, err
		}
		l.Info("order created", "order_no", order.OrderNo, "product_id", productID, "total_fee", order.TotalFee)
	}

	codeURL, err := uc.gw.CreatePaymentIntent(ctx, order)
	if err != nil {
		// The order row stays PENDING; the next attempt reuses it and
		// requests a fresh intent.
		var ge *GatewayError
		if errors.As(err, &ge) {
			l.Error("payment intent rejected", "order_no", order.OrderNo, "status", ge.Status)
		}
		return CreateOrderOutput{}, err
	}
	if err := uc.orders.SaveCodeURL(ctx, order.OrderNo, codeURL); err != nil {
		return CreateOrderOutput{}, err
	}

	return CreateOrderOutput{OrderNo: order.OrderNo, CodeURL: codeURL}, nil
}
