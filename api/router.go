// Package api is the local HTTP surface the UI talks to. Every read is
// served straight from the local store; mutations commit locally first and
// then nudge the sync engine.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mmdatafocus/books_offline/models"
	"github.com/mmdatafocus/books_offline/sync"
	"github.com/mmdatafocus/books_offline/utils"
)

type Handlers struct {
	orch *sync.Orchestrator
}

func NewHandlers(orch *sync.Orchestrator) *Handlers {
	return &Handlers{orch: orch}
}

func NewRouter(orch *sync.Orchestrator) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(correlationMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	v1 := r.Group("/api/v1")
	h := NewHandlers(orch)
	h.Register(v1)
	sync.NewHandlers(orch).Register(v1)
	return r
}

func (h *Handlers) Register(r *gin.RouterGroup) {
	r.GET("/customers", h.listCustomers)
	r.POST("/customers", h.createCustomer)
	r.GET("/customers/:localId", h.getCustomer)
	r.PUT("/customers/:localId", h.updateCustomer)
	r.DELETE("/customers/:localId", h.deleteCustomer)

	r.GET("/suppliers", h.listSuppliers)
	r.POST("/suppliers", h.createSupplier)
	r.GET("/suppliers/:localId", h.getSupplier)
	r.PUT("/suppliers/:localId", h.updateSupplier)
	r.DELETE("/suppliers/:localId", h.deleteSupplier)

	r.GET("/invoices", h.listInvoices)
	r.POST("/invoices", h.createInvoice)
	r.GET("/invoices/:localId", h.getInvoice)
	r.PUT("/invoices/:localId", h.updateInvoice)
	r.DELETE("/invoices/:localId", h.deleteInvoice)
	r.GET("/invoices/:localId/payments", h.listInvoicePayments)

	r.POST("/payments", h.createPayment)
	r.GET("/payments/:localId", h.getPayment)
	r.PUT("/payments/:localId", h.updatePayment)
	r.DELETE("/payments/:localId", h.deletePayment)

	r.GET("/quotations", h.listQuotations)
	r.POST("/quotations", h.createQuotation)
	r.GET("/quotations/:localId", h.getQuotation)
	r.PUT("/quotations/:localId", h.updateQuotation)
	r.DELETE("/quotations/:localId", h.deleteQuotation)
	r.POST("/quotations/:localId/convert", h.convertQuotation)

	r.GET("/dashboard", h.dashboard)
}

// correlationMiddleware attaches a correlation id to every request
// context, minting one when the client did not send it.
func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}

// afterMutation nudges the sync engine once a local write committed. The
// write has already succeeded; the HTTP answer never waits on the network.
func (h *Handlers) afterMutation() {
	h.orch.TriggerSync(models.SyncTriggeredMutation)
}

// afterLoad kicks a background reconcile so reads stay fresh when the
// device is online. Collapsed triggers make this cheap.
func (h *Handlers) afterLoad() {
	h.orch.TriggerSync(models.SyncTriggeredLoad)
}

func respondError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
