// internal/models/types.go
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Numeric - число из хранилища. Значения приходят как числа, строки ("100000.00")
// или мусор; всё, что не разбирается как число, считается нулём.
type Numeric float64

func (n *Numeric) UnmarshalJSON(data []byte) error {
	*n = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	*n = Numeric(parseFinite(raw))
	return nil
}

// parseFinite разбирает число; NaN, Inf и нечисловые строки дают ноль.
func parseFinite(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (n Numeric) Float() float64 { return float64(n) }

// ParseNumeric разбирает произвольное значение строки так же, как Numeric.UnmarshalJSON.
func ParseNumeric(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case Numeric:
		return finite(float64(x))
	case string:
		return parseFinite(x)
	case []byte:
		return ParseNumeric(string(x))
	}
	return 0
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Flag - булево поле. MySQL отдаёт TINYINT(1) как 0/1, часть старых строк хранит "true"/"false".
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "true", "1", "t", "yes":
		*f = true
	}
	return nil
}

func (f Flag) Bool() bool { return bool(f) }

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp принимает несколько форматов дат; неразборчивое значение оставляет нулевое время.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	t.Time = ParseTime(s)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Valid сообщает, удалось ли разобрать дату.
func (t Timestamp) Valid() bool { return !t.IsZero() }

// ParseTime разбирает дату в одном из поддерживаемых форматов. Ошибка даёт нулевое время.
func ParseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// PhotoList - ссылки на фото. В MySQL хранится JSON-строкой, в памяти - массивом.
type PhotoList []string

func (p *PhotoList) UnmarshalJSON(data []byte) error {
	*p = nil
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*p = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || strings.TrimSpace(s) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		*p = list
	}
	return nil
}
