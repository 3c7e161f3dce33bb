package service

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gastoscan/internal/models"
)

var _ = Describe("ParseAmount", func() {
	DescribeTable("converting locale-ambiguous amount strings",
		func(input string, expected float64) {
			Expect(ParseAmount(input)).To(Equal(expected))
		},
		Entry("plain decimal", "45.90", 45.90),
		Entry("comma decimal", "45,90", 45.90),
		Entry("US grouping with dot decimal", "1,234.56", 1234.56),
		Entry("European grouping with comma decimal", "1.234,56", 1234.56),
		Entry("soles prefix", "S/ 45.90", 45.90),
		Entry("lowercase soles prefix", "s/ 45.90", 45.90),
		Entry("dollar prefix", "$ 120.00", 120.00),
		Entry("US dollar token", "US$ 120.00", 120.00),
		Entry("embedded currency word", "120.00 soles", 120.00),
		Entry("integer", "120", 120.00),
		Entry("empty string", "", 0.0),
		Entry("whitespace only", "   ", 0.0),
		Entry("garbage", "abc", 0.0),
		Entry("lone separator", ".", 0.0),
	)
})

var _ = Describe("NormalizeDate", func() {
	DescribeTable("canonicalizing to YYYY-MM-DD",
		func(input, expected string) {
			Expect(NormalizeDate(input)).To(Equal(expected))
		},
		Entry("already ISO", "2024-03-05", "2024-03-05"),
		Entry("day-first with slashes", "05/03/2024", "2024-03-05"),
		Entry("day-first with dashes", "5-3-2024", "2024-03-05"),
		Entry("year-first with slashes", "2024/3/5", "2024-03-05"),
		Entry("year-first with dashes", "2024-3-5", "2024-03-05"),
		Entry("surrounding whitespace", " 05/03/2024 ", "2024-03-05"),
		Entry("unparseable text", "not-a-date", ""),
		Entry("two-digit year", "05/03/24", ""),
		Entry("empty", "", ""),
	)
})

var _ = Describe("DetectCurrency", func() {
	DescribeTable("resolving currency indicators",
		func(input string, expected models.Currency) {
			Expect(DetectCurrency(input)).To(Equal(expected))
		},
		Entry("explicit USD code", "USD", models.CurrencyUSD),
		Entry("dollar sign", "$", models.CurrencyUSD),
		Entry("US dollar token", "US$", models.CurrencyUSD),
		Entry("lowercase usd", "usd", models.CurrencyUSD),
		Entry("explicit PEN code", "PEN", models.CurrencyPEN),
		Entry("soles sign", "S/", models.CurrencyPEN),
		Entry("soles word", "soles", models.CurrencyPEN),
		Entry("unknown defaults to soles", "quatloos", models.CurrencyPEN),
		Entry("empty defaults to soles", "", models.CurrencyPEN),
	)
})
