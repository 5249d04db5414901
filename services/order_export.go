package services

import (
	"fmt"
	"io"

	"github.com/lumme/lumme-api/models"
	"github.com/tealeg/xlsx"
)

// OrderExportContentType is the MIME type of the workbook written by WriteOrdersWorkbook
const OrderExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var orderExportHeaders = []string{
	"Order Number", "Status", "Delivery Date", "Delivery Time", "Delivery Address",
	"Payment Method", "Items", "Delivery Fee", "Total Amount", "Created At",
}

var orderItemExportHeaders = []string{
	"Order Number", "Product ID", "Product", "Quantity", "Unit Price", "Subtotal",
}

// WriteOrdersWorkbook writes orders as an xlsx workbook with an Orders sheet
// and an Items sheet
func WriteOrdersWorkbook(w io.Writer, orders []models.Order) error {
	file := xlsx.NewFile()

	ordersSheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("failed to create orders sheet: %w", err)
	}
	itemsSheet, err := file.AddSheet("Items")
	if err != nil {
		return fmt.Errorf("failed to create items sheet: %w", err)
	}

	addHeaderRow(ordersSheet, orderExportHeaders)
	addHeaderRow(itemsSheet, orderItemExportHeaders)

	for _, order := range orders {
		row := ordersSheet.AddRow()
		row.AddCell().SetString(order.OrderNumber)
		row.AddCell().SetString(string(order.Status))
		row.AddCell().SetString(order.DeliveryDate)
		row.AddCell().SetString(order.DeliveryTime)
		row.AddCell().SetString(order.DeliveryAddress)
		row.AddCell().SetString(order.PaymentMethod)
		row.AddCell().SetInt(len(order.Items))
		row.AddCell().SetFloat(order.DeliveryFee)
		row.AddCell().SetFloat(order.TotalAmount)
		row.AddCell().SetString(order.CreatedAt.Format("2006-01-02 15:04:05"))

		for _, item := range order.Items {
			itemRow := itemsSheet.AddRow()
			itemRow.AddCell().SetString(order.OrderNumber)
			itemRow.AddCell().SetInt(int(item.ProductID))
			itemRow.AddCell().SetString(item.ProductName)
			itemRow.AddCell().SetInt(item.Quantity)
			itemRow.AddCell().SetFloat(item.UnitPrice)
			itemRow.AddCell().SetFloat(item.Subtotal)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func addHeaderRow(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}
}
