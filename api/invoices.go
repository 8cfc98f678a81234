package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/books_offline/models"
)

func parseDateQuery(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

func (h *Handlers) listInvoices(c *gin.Context) {
	invoices, err := models.ListInvoices(c.Request.Context(),
		c.Query("customer_local_id"),
		parseDateQuery(c, "from"),
		parseDateQuery(c, "to"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.afterLoad()
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (h *Handlers) createInvoice(c *gin.Context) {
	var input models.NewInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	invoice, err := models.CreateInvoice(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusCreated, invoice)
}

func (h *Handlers) getInvoice(c *gin.Context) {
	invoice, err := models.GetInvoice(c.Request.Context(), c.Param("localId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *Handlers) updateInvoice(c *gin.Context) {
	var patch models.InvoicePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, err)
		return
	}
	invoice, err := models.UpdateInvoice(c.Request.Context(), c.Param("localId"), &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, invoice)
}

func (h *Handlers) deleteInvoice(c *gin.Context) {
	if err := models.DeleteInvoice(c.Request.Context(), c.Param("localId")); err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handlers) listInvoicePayments(c *gin.Context) {
	invoice, err := models.GetInvoice(c.Request.Context(), c.Param("localId"))
	if err != nil {
		respondError(c, err)
		return
	}
	payments, err := models.ListInvoicePayments(c.Request.Context(), invoice)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
