package service

import (
	"github.com/carrierpay/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineTotal 订单行含税金额：单价 × 数量 × (1 + 税率%)
func LineTotal(item models.OrderItem) decimal.Decimal {
	quantity := item.Quantity
	if quantity <= 0 {
		return decimal.Zero
	}
	net := item.UnitPrice.Decimal.Mul(decimal.NewFromInt(int64(quantity)))
	rate := item.VatRate.Decimal
	if rate.IsZero() {
		return net
	}
	return net.Add(net.Mul(rate).Div(hundred))
}

// OrderTotal 订单含税总额，保留 2 位小数
func OrderTotal(order models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.Items {
		total = total.Add(LineTotal(item))
	}
	return total.Round(2)
}

// SumTotals 多笔订单的含税总额
func SumTotals(orders []models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, order := range orders {
		total = total.Add(OrderTotal(order))
	}
	return total
}
