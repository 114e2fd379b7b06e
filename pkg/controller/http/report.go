package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/secmon-lab/risktree/pkg/domain/types"
	"github.com/secmon-lab/risktree/pkg/usecase"
	"github.com/secmon-lab/risktree/pkg/utils/safe"
)

// report renders the report in the requested format and returns the
// document itself. ?publish=true also uploads it and notifies.
func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	publish, _ := strconv.ParseBool(q.Get("publish"))

	result, err := s.uc.Report.Generate(r.Context(), usecase.ReportRequest{
		SortKey: types.SortKey(q.Get("sort")),
		Order:   types.SortOrder(q.Get("order")),
		Format:  types.ReportFormat(q.Get("format")),
		Publish: publish,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.Format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`inline; filename="%s%s"`, result.Report.ID, result.Format.Extension()))
	for _, loc := range result.Locations {
		w.Header().Add("X-Report-Location", loc)
	}
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, result.Data)
}
