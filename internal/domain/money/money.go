package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ToMinorUnits は決済APIに渡す最小通貨単位（paise/cent）へ変換する。端数は切り捨て。
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Truncate(0).IntPart()
}

// Round2 は表示・保存用に小数2桁へ丸める（四捨五入）
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// Clamp は amount を [lo, hi] に収める
func Clamp(amount, lo, hi decimal.Decimal) decimal.Decimal {
	if amount.LessThan(lo) {
		return lo
	}
	if amount.GreaterThan(hi) {
		return hi
	}
	return amount
}

// ParseOptional は空文字・不正値を nil として扱う
func ParseOptional(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}
