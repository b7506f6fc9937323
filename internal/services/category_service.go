package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "moneytracker/internal/errors"
	"moneytracker/internal/models"
	"moneytracker/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID, name string, categoryType models.CategoryType, color, icon string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	// Check if a category with the same name already exists for this user
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
		Color:  color,
		Icon:   icon,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user.
func (s *categoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.Limit, totalItems)
	return &result, nil
}

// GetUserCategoriesByType retrieves a paginated list of categories of a specific type for a user.
func (s *categoryService) GetUserCategoriesByType(userID string, categoryType models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{}).Where("user_id = ? AND type = ?", userID, categoryType)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.Limit, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category. The type is immutable: changing
// it would silently re-sign the ledger effect of every existing transaction.
func (s *categoryService) UpdateCategory(userID, categoryID string, name, color, icon string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if color != "" {
		updates["color"] = color
	}
	if icon != "" {
		updates["icon"] = icon
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory deletes a category. When transactions reference it, the
// caller must name another owned category to take them over; the bulk
// reassignment and the delete run in one database transaction.
func (s *categoryService) DeleteCategory(userID, categoryID, reassignToCategoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var txCount int64
		if err := tx.Model(&models.Transaction{}).
			Where("category_id = ?", categoryID).
			Count(&txCount).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if txCount > 0 {
			if reassignToCategoryID == "" {
				return apperrors.ErrCategoryInUse
			}
			if reassignToCategoryID == categoryID {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "cannot reassign a category to itself")
			}

			var target models.Category
			if err := tx.Where("id = ? AND user_id = ?", reassignToCategoryID, userID).First(&target).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "Target category not found")
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}

			if err := tx.Model(&models.Transaction{}).
				Where("category_id = ?", categoryID).
				Update("category_id", reassignToCategoryID).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
