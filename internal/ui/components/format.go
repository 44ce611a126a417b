// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats counts with thousands separators for population figures.
var printer = message.NewPrinter(language.English)

// FormatCount renders a population or area count with separators, e.g.
// 10200000 -> "10,200,000".
func FormatCount(v float64) string {
	return printer.Sprintf("%.0f", v)
}

// FormatPercent renders a ratio as a percentage with one decimal.
func FormatPercent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}
