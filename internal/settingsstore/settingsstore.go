// Package settingsstore exposes typed settings on top of the key/value
// settings table. Reader display settings are stored one row per field;
// operational settings resolve database > environment > default.
package settingsstore

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/settings"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const readerPrefix = "reader."

type SettingsStore struct {
	repo *settings.Repository
}

func New(repo *settings.Repository) *SettingsStore {
	return &SettingsStore{repo: repo}
}

func (s *SettingsStore) value(ctx context.Context, key string) (string, bool) {
	setting, err := s.repo.GetSetting(ctx, key)
	if err != nil || setting.Value == "" {
		return "", false
	}
	return setting.Value, true
}

// ValidateReaderSettings checks every field of rs.
func ValidateReaderSettings(rs entities.ReaderSettings) error {
	err := validation.ValidateStruct(&rs,
		validation.Field(&rs.Theme, validation.Required, validation.In(toAny(entities.Themes)...)),
		validation.Field(&rs.FontSize, validation.Required, validation.Min(50), validation.Max(200)),
		validation.Field(&rs.FontFamily, validation.Required, validation.Length(1, 200)),
		validation.Field(&rs.FontWeight, validation.Required, validation.Min(100), validation.Max(900)),
		validation.Field(&rs.LineHeight, validation.Required, validation.Min(1.0), validation.Max(3.0)),
		validation.Field(&rs.PageView, validation.Required, validation.In(entities.PageViewSingle, entities.PageViewDouble)),
		validation.Field(&rs.Language, validation.Required, validation.In(toAny(entities.Languages)...)),
	)
	return apperr.ValidationFrom("reader settings", err)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// ReaderSettings returns stored reader settings over the defaults. Stored
// values that no longer validate are ignored.
func (s *SettingsStore) ReaderSettings(ctx context.Context) (entities.ReaderSettings, error) {
	stored, err := s.repo.GetValues(ctx, readerPrefix)
	if err != nil {
		return entities.ReaderSettings{}, apperr.IO("load reader settings", err)
	}
	fields := make(map[string]json.RawMessage, len(stored))
	for key, value := range stored {
		field := key[len(readerPrefix):]
		if f, ok := readerFields[field]; ok && f.quoted {
			raw, _ := json.Marshal(value)
			fields[field] = raw
		} else {
			fields[field] = json.RawMessage(value)
		}
	}
	rs, _ := applyFields(entities.DefaultReaderSettings(), fields)
	return rs, nil
}

// SaveReaderSettings validates and stores every field of rs.
func (s *SettingsStore) SaveReaderSettings(ctx context.Context, rs entities.ReaderSettings) error {
	if err := ValidateReaderSettings(rs); err != nil {
		return err
	}
	if err := s.repo.SetValues(ctx, encodeReaderSettings(rs)); err != nil {
		return apperr.IO("save reader settings", err)
	}
	return nil
}

// ApplyReaderSettings merges fields into the stored settings one field at
// a time. Unknown fields and fields whose value fails to decode or
// validate are skipped and leave the current value. It returns the result
// and the names of the applied fields.
func (s *SettingsStore) ApplyReaderSettings(ctx context.Context, fields map[string]json.RawMessage) (entities.ReaderSettings, []string, error) {
	current, err := s.ReaderSettings(ctx)
	if err != nil {
		return entities.ReaderSettings{}, nil, err
	}
	next, applied := applyFields(current, fields)
	if len(applied) == 0 {
		return current, nil, nil
	}
	if err := s.repo.SetValues(ctx, encodeReaderSettings(next)); err != nil {
		return entities.ReaderSettings{}, nil, apperr.IO("save reader settings", err)
	}
	return next, applied, nil
}

// ResetReaderSettings removes stored reader settings.
func (s *SettingsStore) ResetReaderSettings(ctx context.Context) error {
	for _, name := range readerFieldOrder {
		if err := s.repo.DeleteSetting(ctx, readerPrefix+name); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.IO("reset reader settings", err)
		}
	}
	return nil
}

type readerField struct {
	quoted bool
	apply  func(rs *entities.ReaderSettings, raw json.RawMessage) error
	encode func(rs entities.ReaderSettings) string
}

var readerFieldOrder = []string{"theme", "fontSize", "fontFamily", "fontWeight", "lineHeight", "pageView", "language"}

var readerFields = map[string]readerField{
	"theme": {
		quoted: true,
		apply:  func(rs *entities.ReaderSettings, raw json.RawMessage) error { return json.Unmarshal(raw, &rs.Theme) },
		encode: func(rs entities.ReaderSettings) string { return rs.Theme },
	},
	"fontSize": {
		apply:  func(rs *entities.ReaderSettings, raw json.RawMessage) error { return json.Unmarshal(raw, &rs.FontSize) },
		encode: func(rs entities.ReaderSettings) string { return strconv.Itoa(rs.FontSize) },
	},
	"fontFamily": {
		quoted: true,
		apply:  func(rs *entities.ReaderSettings, raw json.RawMessage) error { return json.Unmarshal(raw, &rs.FontFamily) },
		encode: func(rs entities.ReaderSettings) string { return rs.FontFamily },
	},
	"fontWeight": {
		apply:  func(rs *entities.ReaderSettings, raw json.RawMessage) error { return json.Unmarshal(raw, &rs.FontWeight) },
		encode: func(rs entities.ReaderSettings) string { return strconv.Itoa(rs.FontWeight) },
	},
	"lineHeight": {
		apply:  func(rs *entities.ReaderSettings, raw json.RawMessage) error { return json.Unmarshal(raw, &rs.LineHeight) },
		encode: func(rs entities.ReaderSettings) string { return strconv.FormatFloat(rs.LineHeight, 'f', -1, 64) },
	},
	"pageView": {
		quoted: true,
		apply:  func(rs *entities.ReaderSettings, raw json.RawMessage) error { return json.Unmarshal(raw, &rs.PageView) },
		encode: func(rs entities.ReaderSettings) string { return string(rs.PageView) },
	},
	"language": {
		quoted: true,
		apply:  func(rs *entities.ReaderSettings, raw json.RawMessage) error { return json.Unmarshal(raw, &rs.Language) },
		encode: func(rs entities.ReaderSettings) string { return rs.Language },
	},
}

// applyFields applies each known field to a copy of base, keeping the
// result only when the whole struct still validates.
func applyFields(base entities.ReaderSettings, fields map[string]json.RawMessage) (entities.ReaderSettings, []string) {
	var applied []string
	for _, name := range readerFieldOrder {
		raw, ok := fields[name]
		if !ok || len(raw) == 0 || string(raw) == "null" {
			continue
		}
		candidate := base
		if err := readerFields[name].apply(&candidate, raw); err != nil {
			log.Printf("[SETTINGS] skip %s: %v", name, err)
			continue
		}
		if err := ValidateReaderSettings(candidate); err != nil {
			log.Printf("[SETTINGS] skip %s: %v", name, err)
			continue
		}
		base = candidate
		applied = append(applied, name)
	}
	return base, applied
}

func encodeReaderSettings(rs entities.ReaderSettings) map[string]string {
	out := make(map[string]string, len(readerFieldOrder))
	for _, name := range readerFieldOrder {
		out[readerPrefix+name] = readerFields[name].encode(rs)
	}
	return out
}
