package services_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/lumme/lumme-api/models"
	"github.com/lumme/lumme-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestWriteOrdersWorkbook(t *testing.T) {
	orders := []models.Order{
		{
			ID:              1,
			OrderNumber:     "ORD-20261017-AAAAAA",
			Status:          models.OrderStatusConfirmed,
			DeliveryDate:    "2026-10-20",
			DeliveryTime:    "10:00-12:00",
			DeliveryAddress: "12 Tulip Street",
			PaymentMethod:   models.DefaultPaymentMethod,
			DeliveryFee:     50,
			TotalAmount:     350,
			CreatedAt:       time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC),
			Items: []models.OrderItem{
				{ProductID: 4, ProductName: "Red Roses", Quantity: 2, UnitPrice: 100, Subtotal: 200},
				{ProductID: 5, ProductName: "White Lilies", Quantity: 1, UnitPrice: 50, Subtotal: 50},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, services.WriteOrdersWorkbook(&buf, orders))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 2)

	ordersSheet := file.Sheet["Orders"]
	require.NotNil(t, ordersSheet)
	require.Len(t, ordersSheet.Rows, 2)
	assert.Equal(t, "Order Number", ordersSheet.Rows[0].Cells[0].Value)
	row := ordersSheet.Rows[1]
	assert.Equal(t, "ORD-20261017-AAAAAA", row.Cells[0].Value)
	assert.Equal(t, "confirmed", row.Cells[1].Value)
	assert.Equal(t, "2", row.Cells[6].Value)
	assert.Equal(t, "350", row.Cells[8].Value)
	assert.Equal(t, "2026-10-17 09:30:00", row.Cells[9].Value)

	itemsSheet := file.Sheet["Items"]
	require.NotNil(t, itemsSheet)
	require.Len(t, itemsSheet.Rows, 3)
	assert.Equal(t, "Red Roses", itemsSheet.Rows[1].Cells[2].Value)
	assert.Equal(t, "2", itemsSheet.Rows[1].Cells[3].Value)
}
