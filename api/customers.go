package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/books_offline/models"
)

func (h *Handlers) listCustomers(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	customers, err := models.ListCustomers(c.Request.Context(), includeInactive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.afterLoad()
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *Handlers) createCustomer(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusCreated, customer)
}

func (h *Handlers) getCustomer(c *gin.Context) {
	customer, err := models.GetCustomer(c.Request.Context(), c.Param("localId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handlers) updateCustomer(c *gin.Context) {
	var patch models.CustomerPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, err)
		return
	}
	customer, err := models.UpdateCustomer(c.Request.Context(), c.Param("localId"), &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, customer)
}

func (h *Handlers) deleteCustomer(c *gin.Context) {
	customer, err := models.DeleteCustomer(c.Request.Context(), c.Param("localId"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, customer)
}
