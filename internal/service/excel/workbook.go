package excel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/xuri/excelize/v2"

	"paradestate/internal/model"
)

// ErrUnknownSheet 工作簿中不存在该工作表
var ErrUnknownSheet = errors.New("unknown sheet")

// Workbook 基于 .xlsx 文件的名册存储
//
// 读写串行化；一个批次先整体校验再落盘，保存失败时从磁盘重新加载，批次视为未应用。
type Workbook struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// Open 打开名册工作簿
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster workbook: %w", err)
	}
	return &Workbook{path: path, file: f}, nil
}

// FromFile 包装内存中的工作簿（不落盘，测试与 dry-run 使用）
func FromFile(f *excelize.File) *Workbook {
	return &Workbook{file: f}
}

// Path 工作簿路径，内存模式为空
func (w *Workbook) Path() string {
	return w.path
}

// Sheets 工作表列表
func (w *Workbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.GetSheetList()
}

// ReadSheet 读取整张表的二维字符串网格
func (w *Workbook) ReadSheet(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasSheetLocked(sheet) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSheet, sheet)
	}
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// ApplyBatch 应用一个批次并保存
func (w *Workbook) ApplyBatch(ctx context.Context, batch model.MutationBatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasSheetLocked(batch.Sheet) {
		return fmt.Errorf("%w: %s", ErrUnknownSheet, batch.Sheet)
	}
	for _, m := range batch.Mutations {
		if _, _, err := excelize.CellNameToCoordinates(m.Cell); err != nil {
			return fmt.Errorf("invalid cell %q: %w", m.Cell, err)
		}
	}

	for _, m := range batch.Mutations {
		if err := w.file.SetCellValue(batch.Sheet, m.Cell, m.Value); err != nil {
			w.reloadLocked()
			return fmt.Errorf("write %s!%s: %w", batch.Sheet, m.Cell, err)
		}
	}
	if w.path == "" {
		return nil
	}
	if err := w.file.Save(); err != nil {
		w.reloadLocked()
		return fmt.Errorf("save roster workbook: %w", err)
	}
	log.Printf("[excel] %s 写入 %d 个单元格", batch.Sheet, batch.Len())
	return nil
}

// Close 关闭工作簿
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

func (w *Workbook) hasSheetLocked(sheet string) bool {
	idx, err := w.file.GetSheetIndex(sheet)
	return err == nil && idx >= 0
}

// reloadLocked 丢弃内存中未保存的修改；内存模式无法回滚
func (w *Workbook) reloadLocked() {
	if w.path == "" {
		return
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		log.Printf("[excel] 重新加载 %s 失败: %v", w.path, err)
		return
	}
	_ = w.file.Close()
	w.file = f
}
