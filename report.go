package shapebind

import (
	"context"

	"go.uber.org/zap"
)

// Report logs a validation outcome as warnings, one entry per issue. Errors
// that are not Issues are logged once. A nil err logs nothing.
func Report(logger *zap.Logger, schemaName string, err error) {
	if err == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	iss, ok := AsIssues(err)
	if !ok {
		logger.Warn("validation failed", zap.String("schema", schemaName), zap.Error(err))
		return
	}
	for _, it := range iss {
		logger.Warn(it.Message,
			zap.String("schema", schemaName),
			zap.String("path", it.Path),
			zap.String("code", it.Code))
	}
}

// Check validates v and logs any issues through logger instead of returning
// them. It reports whether v passed.
func (s *Schema) Check(ctx context.Context, v any, logger *zap.Logger) bool {
	err := s.Validate(ctx, v)
	Report(logger, s.name, err)
	return err == nil
}
