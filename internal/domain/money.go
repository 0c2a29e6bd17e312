package domain

import "github.com/shopspring/decimal"

// PriceScale — количество знаков после запятой для денежных сумм.
const PriceScale int32 = 2

// RoundMoney округляет сумму до копеек по правилу half-up.
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(PriceScale)
}

// AverageOf делит сумму на количество с округлением half-up; при нулевом делителе возвращает ноль.
func AverageOf(total decimal.Decimal, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return RoundMoney(total.Div(decimal.NewFromInt(count)))
}

// SumPrices складывает цены товаров.
func SumPrices(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total
}
