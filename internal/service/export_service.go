package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sims/backend/internal/dto"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 设计说明：
//   - 课程目录报告供目录编辑人员离线核对先修关系
//   - 先修图、校验结果、依赖课程与版本历史并发查询，任一失败则整体失败
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportCatalogReport 导出课程目录报告为 Excel
	ExportCatalogReport(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	prereqSvc  PrerequisiteService
	versionSvc CourseVersionService
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(prereqSvc PrerequisiteService, versionSvc CourseVersionService, logger *zap.Logger) ExportService {
	return &exportService{prereqSvc: prereqSvc, versionSvc: versionSvc, logger: logger}
}

// catalogReport 报告所需的全部数据
type catalogReport struct {
	graph      *dto.PrerequisiteGraphResponse
	validation *dto.PrerequisiteValidationResponse
	dependents *dto.DependentsResponse
	versions   []dto.CourseVersionResponse
}

// ═══════════════════════════════════════════════════════════
// ExportCatalogReport 导出课程目录报告
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "先修关系"：课程代码 | 直接先修
//   - Sheet "校验结果"：状态 | 环路 | 说明
//   - Sheet "依赖课程"：代码 | 名称 | 匹配的先修写法
//   - Sheet "版本历史"：版本 | 名称 | 学分 | 先修 | 是否活动 | 创建时间

func (s *exportService) ExportCatalogReport(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	var report catalogReport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report.graph, err = s.prereqSvc.BuildGraph(gctx, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		report.validation, err = s.prereqSvc.Validate(gctx, courseID, 0)
		return err
	})
	g.Go(func() error {
		var err error
		report.dependents, err = s.prereqSvc.FindDependents(gctx, courseID, "")
		return err
	})
	g.Go(func() error {
		var err error
		report.versions, err = s.versionSvc.ListVersions(gctx, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	writeGraphSheet(f, report.graph)
	writeValidationSheet(f, report.validation)
	writeDependentsSheet(f, report.dependents)
	writeVersionsSheet(f, report.versions)

	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课程目录报告_%s.xlsx", report.graph.StartCode)
	return buf, filename, nil
}

// ── Sheet 写入 ──

const (
	sheetGraph      = "先修关系"
	sheetValidation = "校验结果"
	sheetDependents = "依赖课程"
	sheetVersions   = "版本历史"
)

func newSheet(f *excelize.File, name string, headers []string, widths []float64) {
	f.NewSheet(name)

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range headers {
		col := colName(i)
		f.SetCellValue(name, cell(col, 1), h)
		if i < len(widths) {
			f.SetColWidth(name, col, col, widths[i])
		}
	}
	f.SetCellStyle(name, cell("A", 1), cell(colName(len(headers)-1), 1), style)
}

func writeGraphSheet(f *excelize.File, graph *dto.PrerequisiteGraphResponse) {
	newSheet(f, sheetGraph, []string{"课程代码", "直接先修"}, []float64{16, 48})

	codes := make([]string, 0, len(graph.Adjacency))
	for code := range graph.Adjacency {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	row := 2
	for _, code := range codes {
		f.SetCellValue(sheetGraph, cell("A", row), code)
		f.SetCellValue(sheetGraph, cell("B", row), joinOrDash(graph.Adjacency[code]))
		row++
	}
}

func writeValidationSheet(f *excelize.File, v *dto.PrerequisiteValidationResponse) {
	newSheet(f, sheetValidation, []string{"起点课程", "状态", "环路", "说明", "深度上限"}, []float64{16, 16, 40, 48, 10})

	statusText := map[string]string{
		dto.ChainStatusValid:         "通过",
		dto.ChainStatusCycle:         "存在环路",
		dto.ChainStatusDepthExceeded: "深度超限",
	}

	f.SetCellValue(sheetValidation, cell("A", 2), v.StartCode)
	f.SetCellValue(sheetValidation, cell("B", 2), statusText[v.Status])
	f.SetCellValue(sheetValidation, cell("C", 2), strings.Join(v.Cycle, " → "))
	f.SetCellValue(sheetValidation, cell("D", 2), v.Reason)
	f.SetCellValue(sheetValidation, cell("E", 2), v.MaxDepth)
}

func writeDependentsSheet(f *excelize.File, deps *dto.DependentsResponse) {
	newSheet(f, sheetDependents, []string{"课程代码", "课程名称", "匹配的先修写法"}, []float64{16, 32, 32})

	row := 2
	for _, d := range deps.Dependents {
		f.SetCellValue(sheetDependents, cell("A", row), d.Code)
		f.SetCellValue(sheetDependents, cell("B", row), d.Title)
		f.SetCellValue(sheetDependents, cell("C", row), strings.Join(d.MatchingPrerequisites, ", "))
		row++
	}
}

func writeVersionsSheet(f *excelize.File, versions []dto.CourseVersionResponse) {
	newSheet(f, sheetVersions, []string{"版本", "名称", "学分", "先修", "活动", "创建时间"}, []float64{8, 32, 8, 40, 8, 24})

	row := 2
	for _, v := range versions {
		active := "否"
		if v.IsActive {
			active = "是"
		}
		f.SetCellValue(sheetVersions, cell("A", row), v.Version)
		f.SetCellValue(sheetVersions, cell("B", row), v.Title)
		f.SetCellValue(sheetVersions, cell("C", row), v.Credits)
		f.SetCellValue(sheetVersions, cell("D", row), joinOrDash(v.Prerequisites))
		f.SetCellValue(sheetVersions, cell("E", row), active)
		f.SetCellValue(sheetVersions, cell("F", row), v.CreatedAt)
		row++
	}
}

// ── 辅助函数 ──

func joinOrDash(codes []string) string {
	if len(codes) == 0 {
		return "-"
	}
	return strings.Join(codes, ", ")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
