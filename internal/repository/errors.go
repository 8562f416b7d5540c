package repository

import "errors"

// ErrNotFound возвращается, когда строки с таким id нет (в том числе при условной записи)
var ErrNotFound = errors.New("запись не найдена")
