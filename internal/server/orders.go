package server

import (
	"fmt"
	"io"
	"net/http"

	orderdomain "github.com/framekart/commerce/internal/order/domain"
	"github.com/framekart/commerce/internal/providers/pdf"
	"github.com/gin-gonic/gin"
)

type updateOrderStatusRequest struct {
	Status   string `json:"status"`
	Location string `json:"location"`
	Note     string `json:"note"`
}

func (s *Server) ListMyOrders(c *gin.Context) {
	identity := currentIdentity(c)

	orders, err := s.orderSvc.ListByUser(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	order, ok := s.loadOwnedOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) GetOrderReceipt(c *gin.Context) {
	order, ok := s.loadOwnedOrder(c)
	if !ok {
		return
	}

	user, err := s.authRepo.FindByID(c.Request.Context(), order.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]pdf.ReceiptItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, pdf.ReceiptItem{
			Description: item.ProductName,
			Qty:         item.Quantity,
			UnitPrice:   formatAmount(item.UnitPrice, order.Currency),
			Amount:      formatAmount(item.LineTotal, order.Currency),
		})
	}

	data := pdf.ReceiptData{
		StoreName:    s.cfg.AppName,
		OrderNo:      order.OrderNo,
		OrderDate:    order.CreatedAt.Format("Jan 2, 2006"),
		PaymentRef:   order.SessionID,
		CustomerName: user.Name,
		Items:        items,
		Subtotal:     formatAmount(order.Subtotal, order.Currency),
		Total:        formatAmount(order.Total, order.Currency),
	}
	if order.Discount > 0 {
		data.Discount = formatAmount(order.Discount, order.Currency)
	}

	reader, err := s.pdfSvc.GenerateReceipt(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", order.OrderNo))
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

func (s *Server) ListAllOrders(c *gin.Context) {
	orders, err := s.orderSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.UpdateStatus(c.Request.Context(), id, req.Status, req.Location, req.Note)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) GetOrderStats(c *gin.Context) {
	stats, err := s.orderSvc.Stats(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// loadOwnedOrder fetches the order and enforces that non-admin callers
// only see their own orders.
func (s *Server) loadOwnedOrder(c *gin.Context) (*orderdomain.Order, bool) {
	identity := currentIdentity(c)
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}

	order, err := s.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	if order.UserID != identity.UserID && !identity.IsAdmin() {
		AbortWithError(c, orderdomain.ErrOrderNotFound)
		return nil, false
	}
	return order, true
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, minor/100, minor%100)
}
