// Package table — неизменяемые 2-D и 3-D таблицы настройки (tuning tables)
// с неравномерными осями: объёмная эффективность VE(rpm, MAP) и угол
// опережения зажигания SA(rpm, MAP); 3-D вариант — для третьей оси (например IAT).
package table

import "sort"

// locate находит отрезок сетки, содержащий v, и долю положения внутри него.
// Значения вне [vals[0], vals[n-1]] прижимаются к крайнему отрезку с frac 0
// или 1 (экстраполяции нет). При точном попадании во внутренний узел
// выбирается отрезок, начинающийся в этом узле (lo — индекс узла, frac 0).
func locate(vals []float64, v float64) (lo int, frac float64) {
	n := len(vals)
	if n == 1 {
		return 0, 0
	}
	if v <= vals[0] {
		return 0, 0
	}
	if v >= vals[n-1] {
		return n - 2, 1
	}
	i := sort.Search(n, func(k int) bool { return vals[k] > v })
	lo = i - 1
	if lo < 0 {
		lo = 0
	}
	if lo > n-2 {
		lo = n - 2
	}
	x0, x1 := vals[lo], vals[lo+1]
	frac = (v - x0) / (x1 - x0)
	return lo, frac
}

func hi(n, lo int) int {
	if n > 1 {
		return lo + 1
	}
	return lo
}

// Table2D — билинейная таблица на неравномерной сетке: data[j][i] — значение
// в узле (xs[i], ys[j]).
type Table2D struct {
	xs, ys []float64
	data   [][]float64
}

// NewTable2D создаёт Table2D. Оси xs и ys должны строго возрастать; data
// должна содержать len(ys) строк по len(xs) значений.
func NewTable2D(xs, ys []float64, data [][]float64) *Table2D {
	if len(xs) == 0 || len(ys) == 0 {
		panic("table: empty axis")
	}
	if len(data) != len(ys) {
		panic("table: data row count must match y axis length")
	}
	for _, row := range data {
		if len(row) != len(xs) {
			panic("table: data column count must match x axis length")
		}
	}
	return &Table2D{xs: append([]float64(nil), xs...), ys: append([]float64(nil), ys...), data: data}
}

// Lookup возвращает билинейную интерполяцию в точке (x, y); вне диапазона
// осей значения прижимаются к краю сетки.
func (t *Table2D) Lookup(x, y float64) float64 {
	xi, xw := locate(t.xs, x)
	yi, yw := locate(t.ys, y)
	xj := hi(len(t.xs), xi)
	yj := hi(len(t.ys), yi)

	v00 := t.data[yi][xi]
	v01 := t.data[yi][xj]
	v10 := t.data[yj][xi]
	v11 := t.data[yj][xj]

	top := v00*(1-xw) + v01*xw
	bot := v10*(1-xw) + v11*xw
	return top*(1-yw) + bot*yw
}

// Table3D — трилинейная таблица: data[k][j][i] — значение в узле
// (xs[i], ys[j], zs[k]).
type Table3D struct {
	xs, ys, zs []float64
	data       [][][]float64
}

// NewTable3D создаёт Table3D. Оси должны строго возрастать; data — len(zs)
// плоскостей по len(ys) строк по len(xs) значений.
func NewTable3D(xs, ys, zs []float64, data [][][]float64) *Table3D {
	if len(xs) == 0 || len(ys) == 0 || len(zs) == 0 {
		panic("table: empty axis")
	}
	if len(data) != len(zs) {
		panic("table: data plane count must match z axis length")
	}
	for _, plane := range data {
		if len(plane) != len(ys) {
			panic("table: data row count must match y axis length")
		}
		for _, row := range plane {
			if len(row) != len(xs) {
				panic("table: data column count must match x axis length")
			}
		}
	}
	return &Table3D{
		xs:   append([]float64(nil), xs...),
		ys:   append([]float64(nil), ys...),
		zs:   append([]float64(nil), zs...),
		data: data,
	}
}

// Lookup возвращает трилинейную интерполяцию в точке (x, y, z); вне диапазона
// осей значения прижимаются к краю сетки.
func (t *Table3D) Lookup(x, y, z float64) float64 {
	xi, xw := locate(t.xs, x)
	yi, yw := locate(t.ys, y)
	zi, zw := locate(t.zs, z)
	xj := hi(len(t.xs), xi)
	yj := hi(len(t.ys), yi)
	zj := hi(len(t.zs), zi)

	c000 := t.data[zi][yi][xi]
	c100 := t.data[zi][yi][xj]
	c010 := t.data[zi][yj][xi]
	c110 := t.data[zi][yj][xj]
	c001 := t.data[zj][yi][xi]
	c101 := t.data[zj][yi][xj]
	c011 := t.data[zj][yj][xi]
	c111 := t.data[zj][yj][xj]

	c00 := c000*(1-xw) + c100*xw
	c10 := c010*(1-xw) + c110*xw
	c01 := c001*(1-xw) + c101*xw
	c11 := c011*(1-xw) + c111*xw

	c0 := c00*(1-yw) + c10*yw
	c1 := c01*(1-yw) + c11*yw

	return c0*(1-zw) + c1*zw
}
