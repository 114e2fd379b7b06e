package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/risktree/pkg/domain/types"
)

func TestParseSortKey(t *testing.T) {
	t.Run("every column is accepted", func(t *testing.T) {
		for _, k := range types.AllSortKeys() {
			got, err := types.ParseSortKey(k.String())
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(k)
		}
		gt.A(t, types.AllSortKeys()).Length(8)
	})

	t.Run("empty defaults to risk score", func(t *testing.T) {
		got, err := types.ParseSortKey("")
		gt.NoError(t, err).Required()
		gt.Value(t, got).Equal(types.SortKeyRiskScore)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := types.ParseSortKey("weight")
		gt.Error(t, err)
	})
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		input   string
		want    types.SortOrder
		wantErr bool
	}{
		{input: "", want: types.SortOrderDesc},
		{input: "desc", want: types.SortOrderDesc},
		{input: "asc", want: types.SortOrderAsc},
		{input: "up", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := types.ParseSortOrder(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
		})
	}
}
