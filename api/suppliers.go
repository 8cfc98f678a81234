package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/books_offline/models"
)

func (h *Handlers) listSuppliers(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	suppliers, err := models.ListSuppliers(c.Request.Context(), includeInactive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.afterLoad()
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers})
}

func (h *Handlers) createSupplier(c *gin.Context) {
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, err)
		return
	}
	supplier, err := models.CreateSupplier(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusCreated, supplier)
}

func (h *Handlers) getSupplier(c *gin.Context) {
	supplier, err := models.GetSupplier(c.Request.Context(), c.Param("localId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *Handlers) updateSupplier(c *gin.Context) {
	var patch models.SupplierPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondError(c, err)
		return
	}
	supplier, err := models.UpdateSupplier(c.Request.Context(), c.Param("localId"), &patch)
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, supplier)
}

func (h *Handlers) deleteSupplier(c *gin.Context) {
	supplier, err := models.DeleteSupplier(c.Request.Context(), c.Param("localId"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.afterMutation()
	c.JSON(http.StatusOK, supplier)
}
