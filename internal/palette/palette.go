package palette

import "fmt"

// Empty - индекс цвета, означающий отсутствие вокселя
const Empty = 0

// Color хранит цвет в формате 0xRRGGBB
type Color uint32

// Hex возвращает цвет в виде "#rrggbb"
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// Entry описывает один цвет палитры
type Entry struct {
	Color Color
	Name  string
}

// Palette - фиксированная упорядоченная палитра.
// Индекс цвета i (1..P) соответствует элементу i-1.
type Palette struct {
	entries []Entry
}

// Default возвращает стандартную палитру из 8 цветов
func Default() *Palette {
	return New([]Entry{
		{Color: 0x00ff83, Name: "Зелёный"},
		{Color: 0xff5733, Name: "Оранжевый"},
		{Color: 0x5733ff, Name: "Фиолетовый"},
		{Color: 0xffff00, Name: "Жёлтый"},
		{Color: 0xff0057, Name: "Розовый"},
		{Color: 0x33aaff, Name: "Голубой"},
		{Color: 0xffd700, Name: "Золотой"},
		{Color: 0x8b4513, Name: "Коричневый"},
	})
}

// New создаёт палитру из списка цветов. Список копируется.
func New(entries []Entry) *Palette {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Palette{entries: cp}
}

// Size возвращает количество цветов P
func (p *Palette) Size() int {
	return len(p.entries)
}

// Valid проверяет, что индекс лежит в [0, P]
func (p *Palette) Valid(index int) bool {
	return index >= Empty && index <= len(p.entries)
}

// Lookup возвращает цвет по индексу 1..P.
// Для 0 и индексов вне палитры возвращает false.
func (p *Palette) Lookup(index int) (Entry, bool) {
	if index <= Empty || index > len(p.entries) {
		return Entry{}, false
	}
	return p.entries[index-1], true
}

// Clamp приводит произвольный индекс к диапазону [0, P]
func (p *Palette) Clamp(index int) int {
	if index < Empty {
		return Empty
	}
	if index > len(p.entries) {
		return len(p.entries)
	}
	return index
}

// Colors возвращает значения цветов по порядку (для сохранения в документ проекта)
func (p *Palette) Colors() []Color {
	out := make([]Color, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Color
	}
	return out
}

// Entries возвращает копию элементов палитры
func (p *Palette) Entries() []Entry {
	cp := make([]Entry, len(p.entries))
	copy(cp, p.entries)
	return cp
}
