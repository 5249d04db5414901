package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lumme/lumme-api/models"
	"github.com/shopspring/decimal"
)

// OrderNumberPrefix starts every order number: ORD-YYYYMMDD-XXXXXX
const OrderNumberPrefix = "ORD"

// GenerateOrderNumber builds an order number for the given day with a random
// six character upper-case suffix
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("%s-%s-%s", OrderNumberPrefix, now.Format("20060102"), suffix)
}

// money rounds an amount to cents
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// priceLines freezes unit prices and computes subtotals for the requested
// quantities. It returns the items in request order and the order total
// including the delivery fee.
func priceLines(lines []OrderLine, products map[uint]models.Product, deliveryFee float64) ([]models.OrderItem, float64) {
	total := decimal.NewFromFloat(deliveryFee)
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		product := products[line.ProductID]
		unit := decimal.NewFromFloat(product.Price)
		subtotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(subtotal)

		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   money(unit),
			Subtotal:    money(subtotal),
		})
	}
	return items, money(total)
}
