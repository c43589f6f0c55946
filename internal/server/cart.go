package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) GetCart(c *gin.Context) {
	identity := currentIdentity(c)

	cart, err := s.cartSvc.Get(c.Request.Context(), identity.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (s *Server) AddCartItem(c *gin.Context) {
	identity := currentIdentity(c)

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	productID, ok := parseID(c, req.ProductID, "product_id")
	if !ok {
		return
	}

	cart, err := s.cartSvc.Add(c.Request.Context(), identity.UserID, productID, req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (s *Server) UpdateCartItem(c *gin.Context) {
	identity := currentIdentity(c)
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	cart, err := s.cartSvc.UpdateQuantity(c.Request.Context(), identity.UserID, productID, req.Quantity)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (s *Server) RemoveCartItem(c *gin.Context) {
	identity := currentIdentity(c)
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	cart, err := s.cartSvc.Remove(c.Request.Context(), identity.UserID, productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (s *Server) ClearCart(c *gin.Context) {
	identity := currentIdentity(c)

	if err := s.cartSvc.Clear(c.Request.Context(), identity.UserID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
