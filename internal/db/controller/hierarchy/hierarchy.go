// Package hierarchy stores the role hierarchy as a JSON setting.
package hierarchy

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/marketplace-tools/permd/internal/acl"
	"github.com/marketplace-tools/permd/internal/db/controller/setting"
)

const (
	// SettingKey is the setting name the hierarchy is stored under.
	SettingKey = "acl.hierarchy"
)

// Load reads the stored hierarchy. ok is false when none was stored.
func Load(db *gorm.DB) (h acl.Hierarchy, ok bool, err error) {
	s, err := setting.Get(db, SettingKey)
	if err != nil {
		if errors.Is(err, setting.ErrSettingNotFound) {
			return nil, false, nil
		}

		return nil, false, err
	}

	if err = json.Unmarshal(s.Value, &h); err != nil {
		return nil, false, err
	}

	return h, true, nil
}

// Save validates h and stores it.
func Save(db *gorm.DB, h acl.Hierarchy) error {
	if err := h.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(h)
	if err != nil {
		return err
	}

	_, err = setting.Set(db, SettingKey, data)

	return err
}
