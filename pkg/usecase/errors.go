package usecase

import (
	"errors"

	"github.com/secmon-lab/risktree/pkg/domain/model"
)

// Sentinel errors for use case layer
var (
	// Input errors
	ErrValidation = errors.New("validation failed")

	// Not found errors
	ErrNodeNotFound = model.ErrNodeNotFound

	// Operations refused for structural reasons, e.g. deleting the root
	ErrForbiddenOperation = errors.New("forbidden operation")

	// Storage errors. The in-memory tree is rolled back when these occur.
	ErrPersistence = errors.New("persistence failed")

	// Rendering or publishing a report failed. The tree is never affected.
	ErrReportGeneration = errors.New("report generation failed")
)

// Context keys for error values
const (
	NodeIDKey   = "node_id"
	ParentIDKey = "parent_id"
	FieldKey    = "field"
	FormatKey   = "format"
)
