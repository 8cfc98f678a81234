package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/books_offline/models"
)

func (h *Handlers) listQuotations(c *gin.Context) {
	quotations, err := models.ListQuotations(c.Request.Context(), c.Query("customer_local_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.afterLoad()
	c.JSON(http.StatusOK, gin.H{"quotations": quotations})
}

func (h *Handlers) createQuotation(c *gin.Context) {
	var input models.NewQuotation
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	quotation, err := models.CreateQuotation(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusCreated, quotation)
}

func (h *Handlers) getQuotation(c *gin.Context) {
	quotation, err := models.GetQuotation(c.Request.Context(), c.Param("localId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotation)
}

func (h *Handlers) updateQuotation(c *gin.Context) {
	var patch models.QuotationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, err)
		return
	}
	quotation, err := models.UpdateQuotation(c.Request.Context(), c.Param("localId"), &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, quotation)
}

func (h *Handlers) deleteQuotation(c *gin.Context) {
	if err := models.DeleteQuotation(c.Request.Context(), c.Param("localId")); err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handlers) convertQuotation(c *gin.Context) {
	invoice, err := models.ConvertQuotationToInvoice(c.Request.Context(), c.Param("localId"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusCreated, invoice)
}
