package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
)

var validate = validator.New()

// IsNull reports whether raw is the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// DecodeRepo decodes and validates the repo record of a full index.
func DecodeRepo(raw json.RawMessage) (*domain.IndexRepo, error) {
	var repo domain.IndexRepo
	if err := json.Unmarshal(raw, &repo); err != nil {
		return nil, fmt.Errorf("%w: repo: %w", domain.ErrSerialization, err)
	}
	if err := Validate(&repo); err != nil {
		return nil, fmt.Errorf("repo: %w", err)
	}
	return &repo, nil
}

// DecodePackage decodes and validates one package record of a full index.
func DecodePackage(raw json.RawMessage) (*domain.IndexPackage, error) {
	var pkg domain.IndexPackage
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	if err := Validate(&pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// DecodeVersion decodes and validates a version that a diff introduces.
func DecodeVersion(raw json.RawMessage) (*domain.Version, error) {
	var v domain.Version
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	if err := Validate(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DecodeApp decodes and validates an app that a diff introduces.
func DecodeApp(raw json.RawMessage) (*domain.App, error) {
	var app domain.App
	if err := json.Unmarshal(raw, &app); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSerialization, err)
	}
	if err := Validate(&app); err != nil {
		return nil, err
	}
	return &app, nil
}

// Validate checks the struct tags of a decoded record and reports the
// first violation as domain.ErrValidation.
func Validate(record any) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed %q", domain.ErrValidation, fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%w: %w", domain.ErrValidation, err)
}
