package main

import (
	"github.com/gin-gonic/gin"

	"github.com/flashmart/order-service/internal/application"
	"github.com/flashmart/order-service/internal/domain"
	"github.com/flashmart/order-service/pkg/api"
	"github.com/flashmart/order-service/pkg/middleware"
)

type orderLineRequest struct {
	SKU string `json:"sku" binding:"required"`
	Qty int    `json:"qty" binding:"required,min=1,max=100"`
}

type placeOrderRequest struct {
	UserID string             `json:"userId" binding:"required"`
	Items  []orderLineRequest `json:"items" binding:"required,min=1,dive"`
}

type payOrderRequest struct {
	PaymentReference string `json:"paymentReference" binding:"required"`
}

type createLedgerRequest struct {
	SKU         string `json:"sku" binding:"required"`
	ProductName string `json:"productName" binding:"required"`
	InitialQty  int    `json:"initialQty" binding:"min=0"`
}

type receiveStockRequest struct {
	Qty int `json:"qty" binding:"required,min=1"`
}

func placeOrderHandler(coordinator *application.ReservationCoordinator, responder *middleware.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req placeOrderRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.Respond(c, appErr)
			return
		}

		lines := make([]application.OrderLine, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, application.OrderLine{SKU: item.SKU, Qty: item.Qty})
		}

		result, err := coordinator.PlaceOrder(c.Request.Context(), application.PlaceOrderCommand{
			UserID: req.UserID,
			Items:  lines,
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		responder.RespondCreated(c, result)
	}
}

func payOrderHandler(lifecycle *application.OrderLifecycleService, responder *middleware.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payOrderRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.Respond(c, appErr)
			return
		}

		result, err := lifecycle.Pay(c.Request.Context(), application.PayOrderCommand{
			OrderID:          c.Param("orderId"),
			PaymentReference: req.PaymentReference,
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		responder.RespondOK(c, result)
	}
}

func cancelOrderHandler(lifecycle *application.OrderLifecycleService, responder *middleware.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := lifecycle.Cancel(c.Request.Context(), application.CancelOrderCommand{
			OrderID: c.Param("orderId"),
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		responder.RespondOK(c, result)
	}
}

func shipOrderHandler(lifecycle *application.OrderLifecycleService, responder *middleware.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := lifecycle.Ship(c.Request.Context(), application.ShipOrderCommand{
			OrderID: c.Param("orderId"),
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		responder.RespondOK(c, result)
	}
}

func getOrderHandler(queries *application.OrderQueryService, responder *middleware.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := queries.GetOrder(c.Request.Context(), c.Param("orderId"))
		if err != nil {
			responder.Respond(c, err)
			return
		}
		responder.RespondOK(c, order)
	}
}

func listOrdersHandler(queries *application.OrderQueryService, responder *middleware.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := api.ParsePagination(c)

		orders, total, err := queries.ListOrders(
			c.Request.Context(),
			c.Query("userId"),
			c.Query("status"),
			domain.Pagination{Page: page.Page, PageSize: page.PageSize},
		)
		if err != nil {
			responder.Respond(c, err)
			return
		}
		responder.RespondOK(c, api.NewPageResponse(orders, page.Page, page.PageSize, total))
	}
}

func createLedgerHandler(inventory *application.InventoryService, responder *middleware.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createLedgerRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.Respond(c, appErr)
			return
		}

		ledger, err := inventory.CreateLedger(c.Request.Context(), application.CreateLedgerCommand{
			SKU:         req.SKU,
			ProductName: req.ProductName,
			InitialQty:  req.InitialQty,
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		responder.RespondCreated(c, ledger)
	}
}

func receiveStockHandler(inventory *application.InventoryService, responder *middleware.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req receiveStockRequest
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			responder.Respond(c, appErr)
			return
		}

		ledger, err := inventory.ReceiveStock(c.Request.Context(), application.ReceiveStockCommand{
			SKU: c.Param("sku"),
			Qty: req.Qty,
		})
		if err != nil {
			responder.Respond(c, err)
			return
		}
		responder.RespondOK(c, ledger)
	}
}

func getLedgerHandler(inventory *application.InventoryService, responder *middleware.ErrorResponder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ledger, err := inventory.GetLedger(c.Request.Context(), c.Param("sku"))
		if err != nil {
			responder.Respond(c, err)
			return
		}
		responder.RespondOK(c, ledger)
	}
}
