// Package project сохраняет и загружает проекты в переносимом JSON-документе:
//
//	{"grid": [[[...]]], "grid_size": n, "palette": [...]}
//
// Палитра в документе справочная: при загрузке цвета восстанавливаются
// по индексу, а не по значению.
package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
)

// ErrFormat - документ не является корректным проектом
var ErrFormat = errors.New("invalid project format")

// Document - содержимое файла проекта
type Document struct {
	Grid     voxelgrid.Dense `json:"grid"`
	GridSize int             `json:"grid_size"`
	Palette  []palette.Color `json:"palette"`
}

// Serialize строит плотный документ size³ из разреженного набора ячеек.
// Ячейки вне сетки пропускаются.
func Serialize(cells []voxelgrid.Cell, size int, pal *palette.Palette) *Document {
	doc := &Document{
		Grid:     voxelgrid.FromCells(size, cells),
		GridSize: size,
	}
	if pal != nil {
		doc.Palette = pal.Colors()
	} else {
		doc.Palette = []palette.Color{}
	}
	return doc
}

// Marshal кодирует документ с отступом в 2 пробела
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации проекта: %w", err)
	}
	return data, nil
}

// Decode проверяет документ по схеме и декодирует его.
// Состояние вызывающей стороны не затрагивается: при любой ошибке
// возвращается ErrFormat.
func Decode(data []byte) (*Document, error) {
	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	// Размер сетки подтверждается самим массивом: объявленный grid_size
	// без данных не должен приводить к выделению size³ ячеек
	if err := doc.Grid.CheckShape(doc.GridSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := doc.Grid.Validate(doc.GridSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return &doc, nil
}

// Deserialize возвращает размер сетки и непустые ячейки документа.
// С сервером не взаимодействует.
func Deserialize(data []byte) (int, []voxelgrid.Cell, error) {
	doc, err := Decode(data)
	if err != nil {
		return 0, nil, err
	}
	return doc.GridSize, doc.Grid.Cells(), nil
}
