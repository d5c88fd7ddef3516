package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/menu_backend/models"
	"github.com/mmdatafocus/menu_backend/utils"
	"github.com/shopspring/decimal"
)

// registerPriceValidator hooks the decimal price check into gin's binding
// layer so malformed prices fail at bind time with the same error the model
// layer raises.
func registerPriceValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("decimalprice", func(fl validator.FieldLevel) bool {
			_, err := decimal.NewFromString(fl.Field().String())
			return err == nil
		})
	}
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.GET("/menus", listMenusHandler)
	// registered outside /menus/:menu_id because the router does not allow a
	// static segment alongside a param segment
	api.GET("/nested-menus", nestedMenusHandler)
	api.POST("/menus", createMenuHandler)
	api.GET("/menus/:menu_id", getMenuHandler)
	api.PATCH("/menus/:menu_id", updateMenuHandler)
	api.DELETE("/menus/:menu_id", deleteMenuHandler)

	api.GET("/menus/:menu_id/submenus", listSubmenusHandler)
	api.POST("/menus/:menu_id/submenus", createSubmenuHandler)
	api.GET("/menus/:menu_id/submenus/:submenu_id", getSubmenuHandler)
	api.PATCH("/menus/:menu_id/submenus/:submenu_id", updateSubmenuHandler)
	api.DELETE("/menus/:menu_id/submenus/:submenu_id", deleteSubmenuHandler)

	api.GET("/menus/:menu_id/submenus/:submenu_id/dishes", listDishesHandler)
	api.POST("/menus/:menu_id/submenus/:submenu_id/dishes", createDishHandler)
	api.GET("/menus/:menu_id/submenus/:submenu_id/dishes/:dish_id", getDishHandler)
	api.PATCH("/menus/:menu_id/submenus/:submenu_id/dishes/:dish_id", updateDishHandler)
	api.DELETE("/menus/:menu_id/submenus/:submenu_id/dishes/:dish_id", deleteDishHandler)

	api.GET("/sync-runs", listSyncRunsHandler)
	api.GET("/sync-runs/:run_id", getSyncRunHandler)
}

// respondError maps model-layer sentinels onto the wire contract. The entity
// name feeds the not-found detail, so parent-lookup handlers pass the parent.
func respondError(c *gin.Context, entity string, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": entity + " not found"})
	case errors.Is(err, utils.ErrorDuplicateTitle):
		c.JSON(http.StatusBadRequest, gin.H{"detail": entity + " with get title exists"})
	case errors.Is(err, utils.ErrorInvalidPrice):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid price"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
}

/* menus */

func listMenusHandler(c *gin.Context) {
	menus, err := models.GetMenus(c.Request.Context())
	if err != nil {
		respondError(c, "menu", err)
		return
	}
	c.JSON(http.StatusOK, menus)
}

func nestedMenusHandler(c *gin.Context) {
	menus, err := models.GetNestedMenus(c.Request.Context())
	if err != nil {
		respondError(c, "menu", err)
		return
	}
	c.JSON(http.StatusOK, menus)
}

func getMenuHandler(c *gin.Context) {
	menu, err := models.GetMenuWithCounts(c.Request.Context(), c.Param("menu_id"))
	if err != nil {
		respondError(c, "menu", err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

func createMenuHandler(c *gin.Context) {
	var input models.NewMenu
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	menu, err := models.CreateMenu(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "menu", err)
		return
	}
	c.JSON(http.StatusCreated, menu)
}

func updateMenuHandler(c *gin.Context) {
	var input models.NewMenu
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	menu, err := models.UpdateMenu(c.Request.Context(), c.Param("menu_id"), &input)
	if err != nil {
		respondError(c, "menu", err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

func deleteMenuHandler(c *gin.Context) {
	if err := models.DeleteMenu(c.Request.Context(), c.Param("menu_id")); err != nil {
		respondError(c, "menu", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Success menu delete"})
}

/* submenus */

func listSubmenusHandler(c *gin.Context) {
	submenus, err := models.GetSubmenus(c.Request.Context(), c.Param("menu_id"))
	if err != nil {
		respondError(c, "menu", err)
		return
	}
	c.JSON(http.StatusOK, submenus)
}

func getSubmenuHandler(c *gin.Context) {
	submenu, err := models.GetSubmenuWithCount(c.Request.Context(), c.Param("submenu_id"))
	if err != nil {
		respondError(c, "submenu", err)
		return
	}
	c.JSON(http.StatusOK, submenu)
}

func createSubmenuHandler(c *gin.Context) {
	var input models.NewSubmenu
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	submenu, err := models.CreateSubmenu(c.Request.Context(), c.Param("menu_id"), &input)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			respondError(c, "menu", err)
			return
		}
		respondError(c, "submenu", err)
		return
	}
	c.JSON(http.StatusCreated, submenu)
}

func updateSubmenuHandler(c *gin.Context) {
	var input models.NewSubmenu
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	submenu, err := models.UpdateSubmenu(c.Request.Context(), c.Param("submenu_id"), &input)
	if err != nil {
		respondError(c, "submenu", err)
		return
	}
	c.JSON(http.StatusOK, submenu)
}

func deleteSubmenuHandler(c *gin.Context) {
	if err := models.DeleteSubmenu(c.Request.Context(), c.Param("submenu_id")); err != nil {
		respondError(c, "submenu", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Success submenu delete"})
}

/* dishes */

func listDishesHandler(c *gin.Context) {
	dishes, err := models.GetDishes(c.Request.Context(), c.Param("submenu_id"))
	if err != nil {
		respondError(c, "submenu", err)
		return
	}
	c.JSON(http.StatusOK, dishes)
}

func getDishHandler(c *gin.Context) {
	dish, err := models.GetDish(c.Request.Context(), c.Param("dish_id"))
	if err != nil {
		respondError(c, "dish", err)
		return
	}
	c.JSON(http.StatusOK, dish)
}

func createDishHandler(c *gin.Context) {
	var input models.NewDish
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	dish, err := models.CreateDish(c.Request.Context(), c.Param("submenu_id"), &input)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			respondError(c, "submenu", err)
			return
		}
		respondError(c, "dish", err)
		return
	}
	c.JSON(http.StatusCreated, dish)
}

func updateDishHandler(c *gin.Context) {
	var input models.NewDish
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	dish, err := models.UpdateDish(c.Request.Context(), c.Param("dish_id"), &input)
	if err != nil {
		respondError(c, "dish", err)
		return
	}
	c.JSON(http.StatusOK, dish)
}

func deleteDishHandler(c *gin.Context) {
	if err := models.DeleteDish(c.Request.Context(), c.Param("dish_id")); err != nil {
		respondError(c, "dish", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Success dish delete"})
}

/* sync runs */

func listSyncRunsHandler(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := models.GetMenuSyncRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, "sync run", err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func getSyncRunHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("run_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "sync run not found"})
		return
	}
	run, err := models.GetMenuSyncRun(c.Request.Context(), id)
	if err != nil {
		respondError(c, "sync run", err)
		return
	}
	c.JSON(http.StatusOK, run)
}
