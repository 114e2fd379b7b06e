package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/domain/model"
	"github.com/secmon-lab/risktree/pkg/usecase"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("node not found is shared with the model", func(t *testing.T) {
		err := goerr.Wrap(model.ErrNodeNotFound, "lookup")
		gt.Error(t, err).Is(usecase.ErrNodeNotFound)
	})

	t.Run("sentinels are distinct", func(t *testing.T) {
		all := []error{
			usecase.ErrValidation,
			usecase.ErrNodeNotFound,
			usecase.ErrForbiddenOperation,
			usecase.ErrPersistence,
			usecase.ErrReportGeneration,
		}
		for i, a := range all {
			for j, b := range all {
				if i != j {
					gt.Bool(t, errors.Is(a, b)).False()
				}
			}
		}
	})
}
