package usecase

import "time"

// ValidateName is exported for testing
var ValidateName = validateName

// SetReportClock replaces the clock used to stamp reports
func SetReportClock(uc *ReportUseCase, now func() time.Time) {
	uc.now = now
}
