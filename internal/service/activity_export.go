package service

import (
	"bytes"
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/repository"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

const (
	exportSheet    = "فعالیت‌ها"
	exportPageSize = 500
)

var exportHeaders = []interface{}{
	"عنوان", "کاربر", "نام کاربری", "ایجاد کننده", "تاریخ شروع", "ساعت شروع",
	"تاریخ پایان", "ساعت پایان", "میزان اهمیت", "انجام شده", "نمایش عمومی",
}

// Export renders every activity in scope matching filter as an XLSX workbook.
// Paging fields of filter are ignored.
func (s *ActivityService) Export(ctx context.Context, scope sq.Sqlizer, filter repository.ActivityFilter) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := f.SetSheetView(exportSheet, 0, &excelize.ViewOptions{RightToLeft: boolPtr(true)}); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(exportSheet, "A1", "K1", style)
	}

	filter.Limit = exportPageSize
	filter.Offset = 0
	row := 2
	for {
		items, err := s.activities.List(ctx, nil, scope, filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for i := range items {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := exportRow(&items[i])
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, apperrors.NewInternalError(err)
			}
			row++
		}
		if len(items) < exportPageSize {
			break
		}
		filter.Offset += exportPageSize
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 40)
	_ = f.SetColWidth(exportSheet, "B", "D", 22)
	_ = f.SetColWidth(exportSheet, "E", "K", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buf, nil
}

func exportRow(a *domain.ActivityWithUsers) []interface{} {
	return []interface{}{
		a.Title,
		a.Assignee.FullName(),
		a.Assignee.Username,
		a.Creator.FullName(),
		a.StartDate,
		a.StartTime.String(),
		a.EndDate,
		a.EndTime.String(),
		a.Sensitivity.Label(),
		yesNo(a.IsCompleted),
		yesNo(a.Visibility),
	}
}

func yesNo(v bool) string {
	if v {
		return "بله"
	}
	return "خیر"
}

func boolPtr(v bool) *bool { return &v }
