package db

import (
	"context"
	"fmt"
)

// Platform values stored on account_entity.
const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
)

// ListEnabledAccounts returns the enabled accounts for a platform with the
// latest profile snapshot preloaded. categoryID 0 means every category.
func (p *Pool) ListEnabledAccounts(ctx context.Context, platform string, categoryID int) ([]Account, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	query := p.gdb.WithContext(ctx).
		Preload("Profile").
		Where("enabled = ?", true).
		Where("platform = ?", platform)
	if categoryID > 0 {
		query = query.Where("account_category_id = ?", categoryID)
	}

	var accounts []Account
	if err := query.Order("id").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list enabled accounts: %w", err)
	}
	return accounts, nil
}

// ListTopicsForCategory returns the closed topic list offered to the
// classifier: the category's own topics plus the ones attached to the
// catch-all category.
func (p *Pool) ListTopicsForCategory(ctx context.Context, categoryID int) ([]PostTopic, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	var topics []PostTopic
	err := p.gdb.WithContext(ctx).
		Where("account_category_id = ? OR account_category_id IN (?)",
			categoryID,
			p.gdb.Model(&AccountCategory{}).Select("id").Where("name = ?", "ALL"),
		).
		Order("id").
		Find(&topics).Error
	if err != nil {
		return nil, fmt.Errorf("list topics for category %d: %w", categoryID, err)
	}
	return topics, nil
}
