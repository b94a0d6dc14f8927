package controllers

import (
	"errors"

	"examhub/backend/config"
	"examhub/backend/models"
	"examhub/backend/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoriesController struct {
	DB  *gorm.DB
	Cfg *config.Config
	V   *validator.Validate
}

func NewCategoriesController(db *gorm.DB, cfg *config.Config) *CategoriesController {
	return &CategoriesController{DB: db, Cfg: cfg, V: validator.New()}
}

type CategoryInput struct {
	Name        string     `json:"name" validate:"required,min=1,max=128"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

func (cc *CategoriesController) CreateCategory(c *fiber.Ctx) error {
	var input CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if err := cc.V.Struct(&input); err != nil {
		return utils.Error(c, fiber.StatusUnprocessableEntity, err)
	}

	if input.ParentID != nil {
		var parent models.Category
		if err := cc.DB.First(&parent, "id = ?", *input.ParentID).Error; err != nil {
			return utils.NotFound(c, "Parent category not found")
		}
	}

	category := models.Category{
		Name:        input.Name,
		Description: input.Description,
		ParentID:    input.ParentID,
	}
	if err := cc.DB.Create(&category).Error; err != nil {
		return utils.InternalServerError(c, "Could not create category")
	}

	return utils.Created(c, category)
}

// ListCategories returns root categories with one level of children.
func (cc *CategoriesController) ListCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := cc.DB.Preload("Children").
		Where("parent_id IS NULL").
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, categories)
}

func (cc *CategoriesController) GetCategory(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid category ID")
	}

	var category models.Category
	if err := cc.DB.Preload("Children").First(&category, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Category not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, category)
}

func (cc *CategoriesController) UpdateCategory(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid category ID")
	}

	var input CategoryInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var category models.Category
	if err := cc.DB.First(&category, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Category not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if input.Name != "" {
		category.Name = input.Name
	}
	if input.Description != "" {
		category.Description = input.Description
	}
	if input.ParentID != nil {
		if *input.ParentID == category.ID {
			return utils.BadRequest(c, "Category cannot be its own parent")
		}
		category.ParentID = input.ParentID
	}

	if err := cc.DB.Save(&category).Error; err != nil {
		return utils.InternalServerError(c, "Could not update category")
	}

	return utils.Success(c, fiber.StatusOK, category)
}

func (cc *CategoriesController) DeleteCategory(c *fiber.Ctx) error {
	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid category ID")
	}

	var childCount int64
	cc.DB.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&childCount)
	if childCount > 0 {
		return utils.Conflict(c, "Category has subcategories")
	}

	if err := cc.DB.Delete(&models.Category{}, "id = ?", categoryID).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete category")
	}

	return utils.NoContent(c)
}
