package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/ratings_backend/config"
	"bitbucket.org/mmdatafocus/ratings_backend/utils"
	"gorm.io/gorm"
)

type Company struct {
	ID           int       `gorm:"primary_key" json:"id"`
	Ref          string    `gorm:"size:64;not null;uniqueIndex" json:"ref"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Cin          string    `gorm:"size:64;index" json:"cin"`
	Email        string    `gorm:"size:255" json:"email"`
	Phone        string    `gorm:"size:64" json:"phone"`
	AddressLine1 string    `gorm:"size:255" json:"address_line1"`
	AddressLine2 string    `gorm:"size:255" json:"address_line2"`
	City         string    `gorm:"size:100" json:"city"`
	State        string    `gorm:"size:100" json:"state"`
	Pincode      string    `gorm:"size:20" json:"pincode"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FullAddress joins the non-empty address parts with ", ".
func (c Company) FullAddress() string {
	return JoinAddress(c.AddressLine1, c.AddressLine2, c.City, c.State, c.Pincode)
}

func JoinAddress(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func companyCacheKey(ref string) string {
	return "company:ref:" + ref
}

// GetCompanyByRef resolves an external company reference; inactive companies
// are not found.
func GetCompanyByRef(ctx context.Context, db *gorm.DB, ref string) (*Company, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, utils.ErrorNoCompanyFound
	}

	var company Company
	key := companyCacheKey(ref)
	ttl := config.ResolverCacheTTL()
	if ttl > 0 {
		if exists, err := config.GetRedisObject(key, &company); err == nil && exists && company.IsActive {
			return &company, nil
		}
	}

	err := db.WithContext(ctx).Where("ref = ? AND is_active = ?", ref, true).First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorNoCompanyFound
		}
		return nil, err
	}

	if ttl > 0 {
		if err := config.SetRedisObject(key, &company, ttl); err != nil {
			config.LogError(nil, "models", "GetCompanyByRef", "cache company", ref, err)
		}
	}
	return &company, nil
}
