package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/books_offline/models"
)

func (h *Handlers) createPayment(c *gin.Context) {
	var input models.NewPayment
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	payment, err := models.CreatePayment(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusCreated, payment)
}

func (h *Handlers) getPayment(c *gin.Context) {
	payment, err := models.GetPayment(c.Request.Context(), c.Param("localId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (h *Handlers) updatePayment(c *gin.Context) {
	var patch models.PaymentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, err)
		return
	}
	payment, err := models.UpdatePayment(c.Request.Context(), c.Param("localId"), &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, payment)
}

func (h *Handlers) deletePayment(c *gin.Context) {
	if err := models.DeletePayment(c.Request.Context(), c.Param("localId")); err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
